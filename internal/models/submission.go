package models

import (
	"context"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/openoj/judge-api/internal/types"
)

type Submission struct {
	Model
	TaskID   uuid.UUID `gorm:"column:task_id"`
	UID      uuid.UUID `gorm:"column:uid"`
	Language string
	// Null until the judging engine reports a verdict
	Groups datatypes.JSONSlice[types.TestGroup]
}

func (Submission) TableName() string {
	return "submissions"
}

func (s Submission) GetID() uuid.UUID {
	return s.ID
}

// Judged is true once a verdict has been stored.
func (s Submission) Judged() bool {
	return s.Groups != nil
}

// newest first; id breaks ties between rows created in the same millisecond
const listOrder = "created_at DESC, id"

type ListFilter struct {
	UID    *uuid.UUID
	TaskID *uuid.UUID
	Limit  int
	Offset int
}

func (f ListFilter) apply(db *gorm.DB) *gorm.DB {
	if f.UID != nil {
		db = db.Where("uid = ?", *f.UID)
	}
	if f.TaskID != nil {
		db = db.Where("task_id = ?", *f.TaskID)
	}

	return db
}

// Page returns one page of submissions matching the filter.
func (f ListFilter) Page(ctx context.Context, db *gorm.DB) ([]Submission, error) {
	ctx, span := tracer.Start(ctx, "ListFilter.Page")
	defer span.End()

	db = db.WithContext(ctx)

	var rows []Submission
	err := f.apply(db).
		Order(listOrder).
		Offset(f.Offset).
		Limit(f.Limit).
		Find(&rows).
		Error
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to list submissions")
		return nil, err
	}

	span.SetAttributes(attribute.Int("count", len(rows)))
	return rows, nil
}

// HasMore probes for a row just past the current page.
func (f ListFilter) HasMore(ctx context.Context, db *gorm.DB) (bool, error) {
	ctx, span := tracer.Start(ctx, "ListFilter.HasMore")
	defer span.End()

	db = db.WithContext(ctx)

	var probe []Submission
	err := f.apply(db).
		Order(listOrder).
		Offset(f.Offset + f.Limit).
		Limit(1).
		Find(&probe).
		Error
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to probe for further submissions")
		return false, err
	}

	return len(probe) > 0, nil
}
