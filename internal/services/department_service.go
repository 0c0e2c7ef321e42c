package services

import (
	"context"
	"strings"

	"github.com/sirupsen/logrus"

	"healthcare-portal-server/internal/apperrors"
	"healthcare-portal-server/internal/logger"
	"healthcare-portal-server/internal/models"
	"healthcare-portal-server/internal/policy"
)

// DepartmentService manages hospital departments.
type DepartmentService struct {
	tx          Transactor
	departments DepartmentStore
	log         *logger.Logger
}

// NewDepartmentService creates a new DepartmentService.
func NewDepartmentService(tx Transactor, departments DepartmentStore, log *logger.Logger) *DepartmentService {
	return &DepartmentService{tx: tx, departments: departments, log: log}
}

func (s *DepartmentService) ListDepartments(ctx context.Context, id policy.Identity) ([]models.Department, error) {
	if err := policy.Authorize(id, policy.ActionViewDepartments, policy.Resource{}); err != nil {
		return nil, err
	}
	depts, err := s.departments.ListDepartments(ctx)
	if err != nil {
		return nil, storeErr(err, "list departments")
	}
	return depts, nil
}

func (s *DepartmentService) GetDepartment(ctx context.Context, id policy.Identity, deptID string) (*models.Department, error) {
	if err := policy.Authorize(id, policy.ActionViewDepartments, policy.Resource{}); err != nil {
		return nil, err
	}
	dept, err := s.departments.GetDepartment(ctx, deptID)
	if err != nil {
		return nil, lookupErr(err, "Department not found with ID: %s", deptID)
	}
	return dept, nil
}

// CreateDepartment adds a department. Names are unique.
func (s *DepartmentService) CreateDepartment(ctx context.Context, id policy.Identity, name, description string) (*models.Department, error) {
	if err := policy.Authorize(id, policy.ActionManageDepartments, policy.Resource{}); err != nil {
		return nil, err
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, apperrors.InvalidInput("Department name is required")
	}

	dept := models.Department{Name: name, Description: description}
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		if err := s.ensureNameFree(ctx, name, ""); err != nil {
			return err
		}
		return storeErrOrNil(s.departments.CreateDepartment(ctx, &dept), "create department")
	})
	if err != nil {
		return nil, err
	}
	s.log.Audit(id.UserID, "create", "department", true, logrus.Fields{"department_id": dept.ID})
	return &dept, nil
}

// UpdateDepartment renames or re-describes a department. Empty fields are kept.
func (s *DepartmentService) UpdateDepartment(ctx context.Context, id policy.Identity, deptID, name, description string) (*models.Department, error) {
	if err := policy.Authorize(id, policy.ActionManageDepartments, policy.Resource{}); err != nil {
		return nil, err
	}

	var dept *models.Department
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		current, err := s.departments.GetDepartment(ctx, deptID)
		if err != nil {
			return lookupErr(err, "Department not found with ID: %s", deptID)
		}
		if name = strings.TrimSpace(name); name != "" && name != current.Name {
			if err := s.ensureNameFree(ctx, name, deptID); err != nil {
				return err
			}
			current.Name = name
		}
		if description != "" {
			current.Description = description
		}
		dept = current
		return storeErrOrNil(s.departments.UpdateDepartment(ctx, current), "update department")
	})
	if err != nil {
		return nil, err
	}
	return dept, nil
}

// DeleteDepartment removes a department. Doctors in it keep their accounts
// with no department.
func (s *DepartmentService) DeleteDepartment(ctx context.Context, id policy.Identity, deptID string) error {
	if err := policy.Authorize(id, policy.ActionManageDepartments, policy.Resource{}); err != nil {
		return err
	}
	if err := s.departments.DeleteDepartment(ctx, deptID); err != nil {
		return lookupErr(err, "Department not found with ID: %s", deptID)
	}
	s.log.Audit(id.UserID, "delete", "department", true, logrus.Fields{"department_id": deptID})
	return nil
}

func (s *DepartmentService) ensureNameFree(ctx context.Context, name, excludeID string) error {
	taken, err := s.departments.DepartmentNameTaken(ctx, name, excludeID)
	if err != nil {
		return storeErr(err, "check department name")
	}
	if taken {
		return apperrors.AlreadyExists("Department with name %s already exists", name)
	}
	return nil
}
