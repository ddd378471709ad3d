package code

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/crochee/jobflow/pkg/json"
)

type body struct {
	Code    string      `json:"code"`
	Message string      `json:"message"`
	Result  interface{} `json:"result"`
}

// From parses the ErrorCode carried by a failed http.Response.
// A body that is not an error code keeps the response status.
func From(response *http.Response) ErrorCode {
	var result body
	if err := json.DecodeUseNumber(response.Body, &result); err != nil || result.Code == "" {
		return ErrCodeUnknown.WithStatusCode(response.StatusCode).
			WithMessage(http.StatusText(response.StatusCode))
	}
	return Froze(result.Code, result.Message).WithResult(result.Result)
}

// Froze defines ErrorCode from "[service.]SSSCCCCCCC", S the http status.
func Froze(code, message string) ErrorCode {
	return (&errCode{}).froze(code, message, nil)
}

type errCode struct {
	serviceName    string
	httpStatusCode int
	// 3(service)+4(error)
	code    string
	message string
	result  interface{}
}

func (e *errCode) Error() string {
	return fmt.Sprintf("service_name:%s,http_status_code:%d,code:%s,message:%s,result:%v",
		e.serviceName, e.httpStatusCode, e.code, e.message, e.result)
}

func (e *errCode) ServiceName() string {
	return e.serviceName
}

func (e *errCode) StatusCode() int {
	return e.httpStatusCode
}

func (e *errCode) Code() string {
	return e.code
}

func (e *errCode) Message() string {
	return e.message
}

func (e *errCode) Result() interface{} {
	return e.result
}

func (e *errCode) WithStatusCode(statusCode int) ErrorCode {
	ec := *e
	ec.httpStatusCode = statusCode
	return &ec
}

func (e *errCode) WithMessage(msg string) ErrorCode {
	ec := *e
	ec.message = msg
	return &ec
}

func (e *errCode) WithResult(result interface{}) ErrorCode {
	ec := *e
	ec.result = result
	return &ec
}

func (e *errCode) Is(v error) bool {
	err, ok := v.(ErrorCode)
	if !ok {
		return false
	}
	return err.Code() == e.Code()
}

// Temporary 5xx与429可重试
func (e *errCode) Temporary() bool {
	return e.httpStatusCode >= http.StatusInternalServerError || e.httpStatusCode == http.StatusTooManyRequests
}

func (e *errCode) froze(code, message string, result interface{}) ErrorCode {
	// 默认 ErrInternalServerError
	e.httpStatusCode = http.StatusInternalServerError
	e.code = "0000000"
	e.message = message

	multiErrCode := strings.ReplaceAll(code, "-", "")
	if index := strings.Index(multiErrCode, "."); index > 0 {
		e.serviceName = multiErrCode[:index]
		if index >= len(multiErrCode)-1 {
			return e.WithResult(code + ";" + message)
		}
		multiErrCode = multiErrCode[index+1:]
	}
	if len(multiErrCode) <= 3 {
		return e.WithResult(code + ";" + message)
	}
	httpStatusCode, err := strconv.Atoi(multiErrCode[:3])
	if err != nil {
		return e.WithResult(fmt.Sprintf("code:%s,message:%s;%v", code, message, err))
	}
	if httpStatusCode < 100 || httpStatusCode > 599 {
		return e.WithResult(code + ";" + message)
	}
	e.httpStatusCode = httpStatusCode
	e.code = multiErrCode[3:]
	e.result = result
	return e
}

func (e *errCode) MarshalJSON() ([]byte, error) {
	result := body{
		Code:    e.serviceName + "." + statusPrefix(e) + e.code,
		Message: e.message,
		Result:  e.result,
	}
	if e.serviceName == "" {
		result.Code = statusPrefix(e) + e.code
	}
	return json.Marshal(result)
}

func (e *errCode) UnmarshalJSON(bytes []byte) error {
	var result body
	if err := json.Unmarshal(bytes, &result); err != nil {
		return err
	}
	_ = e.froze(result.Code, result.Message, result.Result)
	return nil
}

func statusPrefix(c ErrorCode) string {
	return fmt.Sprintf("%3d", c.StatusCode())
}
