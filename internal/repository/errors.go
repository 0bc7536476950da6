package repository

import (
	"errors"
	"fmt"

	"github.com/lib/pq"
)

// ErrDuplicate はユニーク制約違反を表す。
// サービス層は事前チェックをすり抜けた競合をこのエラーで検出する。
var ErrDuplicate = errors.New("duplicate key")

// uniqueViolation はPostgreSQLのunique_violationエラーコード。
const uniqueViolation = "23505"

// DuplicateError はどの制約に違反したかを保持するErrDuplicate。
type DuplicateError struct {
	Constraint string
}

// Error はerrorインターフェースを実装する。
func (e *DuplicateError) Error() string {
	return fmt.Sprintf("%s: %s", ErrDuplicate.Error(), e.Constraint)
}

// Is はerrors.Is(err, ErrDuplicate)を成立させる。
func (e *DuplicateError) Is(target error) bool {
	return target == ErrDuplicate
}

// translateError はドライバのユニーク制約違反をDuplicateErrorに変換する。
// それ以外のエラーはそのまま返す。
func translateError(err error) error {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && string(pqErr.Code) == uniqueViolation {
		return &DuplicateError{Constraint: pqErr.Constraint}
	}
	return err
}

// DuplicateConstraint はerrがDuplicateErrorであれば違反した制約名を返す。
func DuplicateConstraint(err error) (string, bool) {
	var dupErr *DuplicateError
	if errors.As(err, &dupErr) {
		return dupErr.Constraint, true
	}
	return "", false
}
