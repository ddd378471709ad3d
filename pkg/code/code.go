package code

import "github.com/pkg/errors"

// ErrorCode is the error body exchanged between the jobflow router and its callback clients.
type ErrorCode interface {
	error
	ServiceName() string
	StatusCode() int
	Code() string
	Message() string
	Result() interface{}
	WithStatusCode(int) ErrorCode
	WithMessage(string) ErrorCode
	WithResult(interface{}) ErrorCode
	Is(error) bool
	// Temporary reports whether the same request may succeed later.
	Temporary() bool
}

// codeLength 3(http)+3(service)+4(error)
const codeLength = 10

var (
	// 0000~0099 系统类

	ErrInternalServerError = Froze("5000000000", "服务器内部错误")
	ErrInvalidParam        = Froze("4000000001", "请求参数不正确")
	ErrNotFound            = Froze("4040000002", "资源不存在")
	ErrParseContent        = Froze("5000000004", "解析内容失败")
	ErrCodeUnknown         = Froze("5000000005", "未知错误")

	// 0100~0199 回调类

	ErrCallbackRejected    = Froze("4220010100", "回调请求被拒绝")
	ErrCallbackUnavailable = Froze("5030010101", "回调服务暂不可用")
)

// Check validates every code, its status and its uniqueness.
func Check(codes ...ErrorCode) error {
	seen := make(map[string]string, len(codes))
	for _, c := range codes {
		if c.StatusCode() < 100 || c.StatusCode() >= 600 {
			return errors.Errorf("error code %s has invalid status code %d", c.Code(), c.StatusCode())
		}
		full := statusPrefix(c) + c.Code()
		if len(full) != codeLength {
			return errors.Errorf("error code %s is %d long, but it must be %d", full, len(full), codeLength)
		}
		if msg, ok := seen[full]; ok {
			return errors.Errorf("error code %s(%s) already exists", full, msg)
		}
		seen[full] = c.Message()
	}
	return nil
}

// All lists the codes declared by jobflow.
func All() []ErrorCode {
	return []ErrorCode{
		ErrInternalServerError,
		ErrInvalidParam,
		ErrNotFound,
		ErrParseContent,
		ErrCodeUnknown,
		ErrCallbackRejected,
		ErrCallbackUnavailable,
	}
}
