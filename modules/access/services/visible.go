package services

// Visible pairs a record with the decision that released it.
type Visible[T any] struct {
	Item     T
	Decision Decision
}

func (v Visible[T]) Masked() bool {
	return v.Decision == AllowMasked
}
