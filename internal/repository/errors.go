package repository

import (
	"errors"
	"strings"

	"github.com/lib/pq"
)

var (
	// ErrStatusChanged reports that a conditional status update matched no
	// row because another request moved the transaction first.
	ErrStatusChanged = errors.New("transaction status changed")
	// ErrDuplicate wraps unique-constraint violations.
	ErrDuplicate = errors.New("duplicate key")
	// ErrReferenced wraps foreign-key violations.
	ErrReferenced = errors.New("row is referenced")
)

// classify maps driver-specific constraint errors onto package sentinels.
func classify(err error) error {
	if err == nil {
		return nil
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		switch pqErr.Code {
		case "23505":
			return errors.Join(ErrDuplicate, err)
		case "23503":
			return errors.Join(ErrReferenced, err)
		}
		return err
	}
	msg := err.Error()
	switch {
	case strings.Contains(msg, "UNIQUE constraint failed"):
		return errors.Join(ErrDuplicate, err)
	case strings.Contains(msg, "FOREIGN KEY constraint failed"):
		return errors.Join(ErrReferenced, err)
	}
	return err
}

func pageBounds(page, pageSize int) (limit, offset int) {
	if page < 1 {
		page = 1
	}
	if pageSize <= 0 || pageSize > 100 {
		pageSize = 20
	}
	return pageSize, (page - 1) * pageSize
}

func likePattern(search string) string {
	return "%" + strings.ToLower(strings.TrimSpace(search)) + "%"
}