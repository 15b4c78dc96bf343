package viewmodels

type Unit struct {
	ID       string  `json:"id"`
	Code     string  `json:"code"`
	Name     string  `json:"name"`
	ParentID *string `json:"parent_id,omitempty"`
	Layer    string  `json:"layer"`
	Active   bool    `json:"active"`
}

type TreeNode struct {
	Unit
	Depth    int         `json:"depth"`
	Children []*TreeNode `json:"children"`
}

type Grant struct {
	UnitID   string `json:"unit_id"`
	Delegate bool   `json:"delegate"`
}

type User struct {
	ID        string  `json:"id"`
	Username  string  `json:"username"`
	Email     string  `json:"email"`
	FirstName string  `json:"first_name"`
	LastName  string  `json:"last_name"`
	UnitID    string  `json:"unit_id"`
	Layer     string  `json:"layer"`
	Role      string  `json:"role"`
	Grants    []Grant `json:"grants"`
	Active    bool    `json:"active"`
}
