package queue

import (
	"encoding/json"
	"fmt"

	"github.com/google/uuid"

	"github.com/platinummonkey/tenancy/pkg/ids"
)

// TaskType names the hierarchy level a cleanup task targets.
type TaskType string

const (
	// TaskCustomers cascades customer deletions.
	TaskCustomers TaskType = "Customers"
	// TaskOrganizations cascades organization deletions.
	TaskOrganizations TaskType = "Organizations"
	// TaskInstitutions cascades institution deletions.
	TaskInstitutions TaskType = "Institutions"
	// TaskOrganizationUnits cascades organization-unit deletions.
	TaskOrganizationUnits TaskType = "OrganizationUnits"
	// TaskNone carries no work and completes immediately.
	TaskNone TaskType = "None"
)

// CleanupTask is one unit of cascade work: the deleted nodes of a single
// hierarchy level. Exactly one payload list is populated, matching Type;
// payloads are strict ids so a task can never name a partially-specified
// node. Single deletions travel as one-element lists.
type CleanupTask struct {
	ID                uuid.UUID
	Type              TaskType
	Customers         []ids.StrictCustomerID
	Organizations     []ids.StrictOrganizationID
	Institutions      []ids.StrictInstitutionID
	OrganizationUnits []ids.StrictOrganizationUnitID
}

// NewCustomerCleanup builds a task cascading customer deletions.
func NewCustomerCleanup(targets ...ids.StrictCustomerID) CleanupTask {
	return CleanupTask{ID: uuid.New(), Type: TaskCustomers, Customers: targets}
}

// NewOrganizationCleanup builds a task cascading organization deletions.
func NewOrganizationCleanup(targets ...ids.StrictOrganizationID) CleanupTask {
	return CleanupTask{ID: uuid.New(), Type: TaskOrganizations, Organizations: targets}
}

// NewInstitutionCleanup builds a task cascading institution deletions.
func NewInstitutionCleanup(targets ...ids.StrictInstitutionID) CleanupTask {
	return CleanupTask{ID: uuid.New(), Type: TaskInstitutions, Institutions: targets}
}

// NewOrganizationUnitCleanup builds a task cascading organization-unit
// deletions.
func NewOrganizationUnitCleanup(targets ...ids.StrictOrganizationUnitID) CleanupTask {
	return CleanupTask{ID: uuid.New(), Type: TaskOrganizationUnits, OrganizationUnits: targets}
}

// NewNoneCleanup builds an empty task.
func NewNoneCleanup() CleanupTask {
	return CleanupTask{ID: uuid.New(), Type: TaskNone}
}

// Validate checks that the payload list matches the task type and is
// non-empty.
func (t CleanupTask) Validate() error {
	switch t.Type {
	case TaskCustomers:
		if len(t.Customers) == 0 {
			return fmt.Errorf("task %s: empty customer payload", t.ID)
		}
	case TaskOrganizations:
		if len(t.Organizations) == 0 {
			return fmt.Errorf("task %s: empty organization payload", t.ID)
		}
	case TaskInstitutions:
		if len(t.Institutions) == 0 {
			return fmt.Errorf("task %s: empty institution payload", t.ID)
		}
	case TaskOrganizationUnits:
		if len(t.OrganizationUnits) == 0 {
			return fmt.Errorf("task %s: empty organization unit payload", t.ID)
		}
	case TaskNone:
	default:
		return fmt.Errorf("task %s: unknown type %q", t.ID, t.Type)
	}
	return nil
}

// taskWire is the serialized form. Each payload element travels as the
// id's canonical hex chain, which round-trips exactly through the strict
// parsers.
type taskWire struct {
	ID      uuid.UUID `json:"id"`
	Type    TaskType  `json:"ty"`
	Payload []string  `json:"payload,omitempty"`
}

// MarshalJSON encodes the task with its payload in canonical hex form.
func (t CleanupTask) MarshalJSON() ([]byte, error) {
	if err := t.Validate(); err != nil {
		return nil, err
	}
	wire := taskWire{ID: t.ID, Type: t.Type}
	switch t.Type {
	case TaskCustomers:
		for _, target := range t.Customers {
			wire.Payload = append(wire.Payload, target.String())
		}
	case TaskOrganizations:
		for _, target := range t.Organizations {
			wire.Payload = append(wire.Payload, target.String())
		}
	case TaskInstitutions:
		for _, target := range t.Institutions {
			wire.Payload = append(wire.Payload, target.String())
		}
	case TaskOrganizationUnits:
		for _, target := range t.OrganizationUnits {
			wire.Payload = append(wire.Payload, target.String())
		}
	}
	return json.Marshal(wire)
}

// UnmarshalJSON decodes and re-validates a task.
func (t *CleanupTask) UnmarshalJSON(data []byte) error {
	var wire taskWire
	if err := json.Unmarshal(data, &wire); err != nil {
		return err
	}
	out := CleanupTask{ID: wire.ID, Type: wire.Type}
	switch wire.Type {
	case TaskCustomers:
		for _, payload := range wire.Payload {
			id, err := ids.ParseStrictCustomerID(payload)
			if err != nil {
				return fmt.Errorf("task %s: %w", wire.ID, err)
			}
			out.Customers = append(out.Customers, id)
		}
	case TaskOrganizations:
		for _, payload := range wire.Payload {
			id, err := ids.ParseStrictOrganizationID(payload)
			if err != nil {
				return fmt.Errorf("task %s: %w", wire.ID, err)
			}
			out.Organizations = append(out.Organizations, id)
		}
	case TaskInstitutions:
		for _, payload := range wire.Payload {
			id, err := ids.ParseStrictInstitutionID(payload)
			if err != nil {
				return fmt.Errorf("task %s: %w", wire.ID, err)
			}
			out.Institutions = append(out.Institutions, id)
		}
	case TaskOrganizationUnits:
		for _, payload := range wire.Payload {
			id, err := ids.ParseStrictOrganizationUnitID(payload)
			if err != nil {
				return fmt.Errorf("task %s: %w", wire.ID, err)
			}
			out.OrganizationUnits = append(out.OrganizationUnits, id)
		}
	case TaskNone:
	default:
		return fmt.Errorf("task %s: unknown type %q", wire.ID, wire.Type)
	}
	if err := out.Validate(); err != nil {
		return err
	}
	*t = out
	return nil
}
