package repository

import (
	"context"

	"gorm.io/gorm"

	"healthcare-portal-server/internal/models"
)

// DepartmentRepository persists departments.
type DepartmentRepository struct {
	db *gorm.DB
}

// NewDepartmentRepository creates a new DepartmentRepository.
func NewDepartmentRepository(db *gorm.DB) *DepartmentRepository {
	return &DepartmentRepository{db: db}
}

func (r *DepartmentRepository) CreateDepartment(ctx context.Context, dept *models.Department) error {
	return translate(conn(ctx, r.db).Create(dept).Error)
}

func (r *DepartmentRepository) GetDepartment(ctx context.Context, id string) (*models.Department, error) {
	var dept models.Department
	if err := conn(ctx, r.db).First(&dept, "id = ?", id).Error; err != nil {
		return nil, translate(err)
	}
	return &dept, nil
}

func (r *DepartmentRepository) ListDepartments(ctx context.Context) ([]models.Department, error) {
	var depts []models.Department
	if err := conn(ctx, r.db).Order("name asc").Find(&depts).Error; err != nil {
		return nil, err
	}
	return depts, nil
}

// DepartmentNameTaken reports whether another department already uses name.
func (r *DepartmentRepository) DepartmentNameTaken(ctx context.Context, name, excludeID string) (bool, error) {
	var count int64
	query := conn(ctx, r.db).Model(&models.Department{}).Where("name = ?", name)
	if excludeID != "" {
		query = query.Where("id <> ?", excludeID)
	}
	err := query.Count(&count).Error
	return count > 0, err
}

func (r *DepartmentRepository) UpdateDepartment(ctx context.Context, dept *models.Department) error {
	return translate(conn(ctx, r.db).Save(dept).Error)
}

func (r *DepartmentRepository) DeleteDepartment(ctx context.Context, id string) error {
	result := conn(ctx, r.db).Delete(&models.Department{}, "id = ?", id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}
