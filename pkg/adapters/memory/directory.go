package memory

import (
	"context"
	"fmt"
	"sync"

	"github.com/enderxdxd/botflow/pkg/domain"
)

// OperatorDirectory implements ports.OperatorDirectory over a static roster.
// The real deployment backs this with the CRM's presence data; here it serves
// tests and the simulate command.
type OperatorDirectory struct {
	mu          sync.RWMutex
	departments map[string]domain.Department
	operators   map[string][]domain.Operator
}

// NewOperatorDirectory creates an empty directory.
func NewOperatorDirectory() *OperatorDirectory {
	return &OperatorDirectory{
		departments: make(map[string]domain.Department),
		operators:   make(map[string][]domain.Operator),
	}
}

// SetDepartment registers a department and its available operators.
func (d *OperatorDirectory) SetDepartment(dep domain.Department, operators ...domain.Operator) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.departments[dep.ID] = dep
	d.operators[dep.ID] = operators
}

// Department resolves a department by ID.
func (d *OperatorDirectory) Department(ctx context.Context, departmentID string) (*domain.Department, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	dep, ok := d.departments[departmentID]
	if !ok {
		return nil, fmt.Errorf("department %q not found", departmentID)
	}
	return &dep, nil
}

// ListAvailable returns the department's available operators.
func (d *OperatorDirectory) ListAvailable(ctx context.Context, departmentID string) ([]domain.Operator, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	ops := d.operators[departmentID]
	out := make([]domain.Operator, len(ops))
	copy(out, ops)
	return out, nil
}
