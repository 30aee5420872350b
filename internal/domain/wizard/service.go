// Package wizard serves the guided recommendation flow: pick a condition,
// then a patient type, then a treatment phase, and get the recommended
// products. It is a read-only view over the cached condition aggregate.
package wizard

import (
	"context"
	"errors"
	"sort"
	"strings"

	"github.com/dentiq/therawizard/internal/domain/condition"
)

var (
	ErrConditionNotFound = errors.New("condition not found")
	ErrPhaseNotFound     = errors.New("phase not configured for condition")
)

// Summary is the condition list entry shown on the first wizard step.
type Summary struct {
	DBID     *int64  `json:"db_id,omitempty"`
	Name     string  `json:"name"`
	Category *string `json:"category"`
}

// Recommendation is the final wizard answer.
type Recommendation struct {
	Condition   string   `json:"condition"`
	PatientType string   `json:"patientType"`
	Phase       string   `json:"phase"`
	Products    []string `json:"products"`
}

// conditionLister is the slice of the condition service the wizard needs.
type conditionLister interface {
	List(ctx context.Context, force bool) ([]condition.Condition, error)
}

type Service struct {
	conditions conditionLister
}

func NewService(conditions conditionLister) *Service {
	return &Service{conditions: conditions}
}

// Conditions returns every condition summary, alphabetical.
func (s *Service) Conditions(ctx context.Context) ([]Summary, error) {
	list, err := s.conditions.List(ctx, false)
	if err != nil {
		return nil, err
	}
	summaries := make([]Summary, 0, len(list))
	for i := range list {
		summaries = append(summaries, Summary{
			DBID:     list[i].DBID,
			Name:     list[i].Name,
			Category: list[i].Category,
		})
	}
	sort.Slice(summaries, func(i, j int) bool { return summaries[i].Name < summaries[j].Name })
	return summaries, nil
}

// PatientTypes returns the patient types configured anywhere on the
// condition, with the derived bucket appended last when real types exist.
func (s *Service) PatientTypes(ctx context.Context, conditionName string) ([]string, error) {
	c, err := s.find(ctx, conditionName)
	if err != nil {
		return nil, err
	}
	seen := map[string]bool{}
	var types []string
	for _, perType := range c.PatientSpecificConfig {
		for name := range perType {
			if name == condition.DerivedAllKey || seen[name] {
				continue
			}
			seen[name] = true
			types = append(types, name)
		}
	}
	sort.Strings(types)
	if len(types) > 0 {
		types = append(types, condition.DerivedAllKey)
	}
	return types, nil
}

// Phases returns the condition's treatment phases in stored order.
func (s *Service) Phases(ctx context.Context, conditionName string) ([]string, error) {
	c, err := s.find(ctx, conditionName)
	if err != nil {
		return nil, err
	}
	return append([]string(nil), c.Phases...), nil
}

// Recommend answers one wizard walk. patientType may be the derived "all"
// bucket, which holds the products common to every real patient type.
func (s *Service) Recommend(ctx context.Context, conditionName, patientType, phase string) (*Recommendation, error) {
	c, err := s.find(ctx, conditionName)
	if err != nil {
		return nil, err
	}
	perType, ok := c.PatientSpecificConfig[phase]
	if !ok {
		return nil, ErrPhaseNotFound
	}
	products := perType[patientType]
	return &Recommendation{
		Condition:   c.Name,
		PatientType: patientType,
		Phase:       phase,
		Products:    append([]string{}, products...),
	}, nil
}

func (s *Service) find(ctx context.Context, name string) (*condition.Condition, error) {
	list, err := s.conditions.List(ctx, false)
	if err != nil {
		return nil, err
	}
	for i := range list {
		if strings.EqualFold(list[i].Name, name) {
			return &list[i], nil
		}
	}
	return nil, ErrConditionNotFound
}
