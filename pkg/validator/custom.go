package validator

import (
	"regexp"

	"github.com/go-playground/validator/v10"
)

var schedulerNameCompile = regexp.MustCompile(`^[0-9a-zA-Z][0-9a-zA-Z_.-]{0,63}$`)

// SchedulerName 只允许输入数字、字母、下划线、点和中划线，以数字或字母开头，字符长度1-64个字符
func SchedulerName(f1 validator.FieldLevel) bool {
	valid, ok := f1.Field().Interface().(string)
	if !ok {
		return false
	}
	return schedulerNameCompile.MatchString(valid)
}
