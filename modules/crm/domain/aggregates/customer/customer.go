package customer

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/jacksonlee411/branch-crm/pkg/serrors"
)

// Stage is a step of the acquisition funnel. Stages only move forward.
type Stage string

const (
	StageSuspect  Stage = "suspect"
	StageProspect Stage = "prospect"
	StageLead     Stage = "lead"
	StageCustomer Stage = "customer"
)

// Stages lists the funnel in order.
var Stages = []Stage{StageSuspect, StageProspect, StageLead, StageCustomer}

func (s Stage) rank() int {
	for i, st := range Stages {
		if st == s {
			return i + 1
		}
	}
	return 0
}

func (s Stage) Valid() bool {
	return s.rank() > 0
}

func ParseStage(v string) (Stage, error) {
	s := Stage(strings.ToLower(strings.TrimSpace(v)))
	if !s.Valid() {
		return "", serrors.Validation(fmt.Sprintf("unknown customer stage %q", v), nil)
	}
	return s, nil
}

type Segment string

const (
	SegmentRetail         Segment = "retail"
	SegmentSME            Segment = "sme"
	SegmentCorporate      Segment = "corporate"
	SegmentPrivateBanking Segment = "private_banking"
)

func (s Segment) Valid() bool {
	switch s {
	case SegmentRetail, SegmentSME, SegmentCorporate, SegmentPrivateBanking:
		return true
	}
	return false
}

type StageDates struct {
	SuspectAt  *time.Time
	ProspectAt *time.Time
	LeadAt     *time.Time
	CustomerAt *time.Time
}

func (d *StageDates) stamp(s Stage, at time.Time) {
	switch s {
	case StageSuspect:
		d.SuspectAt = &at
	case StageProspect:
		d.ProspectAt = &at
	case StageLead:
		d.LeadAt = &at
	case StageCustomer:
		d.CustomerAt = &at
	}
}

type Customer struct {
	ID                 uuid.UUID
	FirstName          string
	LastName           string
	CompanyName        string
	Email              string
	Phone              string
	City               string
	Segment            Segment
	Stage              Stage
	StageDates         StageDates
	AccountNumber      string
	EstimatedAssets    decimal.Decimal
	HighNetWorth       bool
	QualificationScore int
	OwnerID            uuid.UUID
	OwningUnitID       uuid.UUID
	LastContactAt      *time.Time
	Version            int
	CreatedAt          time.Time
	UpdatedAt          time.Time
}

// New starts a customer at the suspect stage, owned by ownerID in unitID.
func New(ownerID, unitID uuid.UUID, at time.Time) *Customer {
	c := &Customer{
		ID:           uuid.New(),
		Segment:      SegmentRetail,
		Stage:        StageSuspect,
		OwnerID:      ownerID,
		OwningUnitID: unitID,
		Version:      1,
		CreatedAt:    at,
		UpdatedAt:    at,
	}
	c.StageDates.stamp(StageSuspect, at)
	return c
}

func (c *Customer) DisplayName() string {
	if c.CompanyName != "" {
		return c.CompanyName
	}
	return strings.TrimSpace(c.FirstName + " " + c.LastName)
}

// Qualify scores the customer from 0 to 100 on contact details, financial
// data, contact recency and open opportunities, and stores the result.
func (c *Customer) Qualify(now time.Time, openOpportunities int64) int {
	score := 0
	if c.Email != "" {
		score += 10
	}
	if c.Phone != "" {
		score += 10
	}
	if c.EstimatedAssets.IsPositive() {
		score += 20
	}
	if c.AccountNumber != "" {
		score += 20
	}
	if c.LastContactAt != nil {
		switch since := now.Sub(*c.LastContactAt); {
		case since < 7*24*time.Hour:
			score += 20
		case since < 30*24*time.Hour:
			score += 10
		}
	}
	if openOpportunities > 0 {
		score += 20
	}
	c.QualificationScore = min(score, 100)
	return c.QualificationScore
}

// CanAdvance accepts only stages strictly after the current one.
func (c *Customer) CanAdvance(to Stage) error {
	if !to.Valid() || to.rank() <= c.Stage.rank() {
		return serrors.InvalidTransition(string(c.Stage), string(to))
	}
	return nil
}

func (c *Customer) Advance(to Stage, at time.Time) error {
	if err := c.CanAdvance(to); err != nil {
		return err
	}
	c.Stage = to
	c.StageDates.stamp(to, at)
	c.UpdatedAt = at
	return nil
}
