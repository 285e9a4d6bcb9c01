package ledger

import (
	"context"
	"errors"
	"fmt"

	"github.com/go-sql-driver/mysql"
	"gorm.io/gorm"
)

// 错误类别，配合 errors.Is 使用
var (
	ErrUnauthorized = errors.New("unauthorized")
	ErrNotFound     = errors.New("not found")
	ErrValidation   = errors.New("validation failed")
	ErrConflict     = errors.New("conflict")
	// ErrTransient 可重试的临时错误（超时、锁等待、死锁）
	ErrTransient = errors.New("transient failure")
)

// Error 账本操作错误
type Error struct {
	Kind    error
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *Error) Unwrap() []error {
	if e.Err != nil {
		return []error{e.Kind, e.Err}
	}
	return []error{e.Kind}
}

// KindOf 返回错误类别，无法识别时返回 nil
func KindOf(err error) error {
	for _, kind := range []error{ErrUnauthorized, ErrNotFound, ErrValidation, ErrConflict, ErrTransient} {
		if errors.Is(err, kind) {
			return kind
		}
	}
	return nil
}

// MessageOf 返回可展示给用户的错误信息
func MessageOf(err error) string {
	var le *Error
	if errors.As(err, &le) {
		return le.Message
	}
	return err.Error()
}

func unauthorized() error {
	return &Error{Kind: ErrUnauthorized, Message: "未登录或登录已过期"}
}

func notFound(msg string) error {
	return &Error{Kind: ErrNotFound, Message: msg}
}

func invalid(format string, args ...any) error {
	return &Error{Kind: ErrValidation, Message: fmt.Sprintf(format, args...)}
}

func conflict(format string, args ...any) error {
	return &Error{Kind: ErrConflict, Message: fmt.Sprintf(format, args...)}
}

// classify 把存储层错误归类，op 描述失败的操作
func classify(err error, op string) error {
	if err == nil {
		return nil
	}
	var le *Error
	if errors.As(err, &le) {
		return err
	}

	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		return &Error{Kind: ErrNotFound, Message: "记录不存在", Err: err}
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return &Error{Kind: ErrConflict, Message: "记录已存在", Err: err}
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
		return &Error{Kind: ErrTransient, Message: op + "超时，请稍后重试", Err: err}
	}

	var myErr *mysql.MySQLError
	if errors.As(err, &myErr) {
		switch myErr.Number {
		case 1205, 1213: // 锁等待超时 / 死锁
			return &Error{Kind: ErrTransient, Message: op + "冲突，请稍后重试", Err: err}
		case 1062:
			return &Error{Kind: ErrConflict, Message: "记录已存在", Err: err}
		}
	}

	return fmt.Errorf("%s: %w", op, err)
}

func isNotFound(err error) bool {
	return errors.Is(err, gorm.ErrRecordNotFound)
}
