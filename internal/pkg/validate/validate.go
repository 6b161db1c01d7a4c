package validate

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
)

// v is the package-level singleton validator. Custom registrations belong in
// init() before the first call.
var v = validator.New()

// Struct validates s against its validate tags. Field failures are joined
// into one message naming the JSON-visible field and the failed rule, e.g.
// "userNotificationsSetup[0].userId: required".
func Struct(s interface{}) error {
	return describe(v.Struct(s))
}

// Var validates a single value against tag, e.g. Var(addr, "email").
func Var(value interface{}, tag string) error {
	return describe(v.Var(value, tag))
}

func describe(err error) error {
	if err == nil {
		return nil
	}
	var ve validator.ValidationErrors
	if !errors.As(err, &ve) {
		return err
	}
	msgs := make([]string, 0, len(ve))
	for _, fe := range ve {
		name := fe.Namespace()
		if i := strings.IndexByte(name, '.'); i >= 0 {
			name = name[i+1:]
		}
		if name == "" {
			name = "value"
		}
		msgs = append(msgs, fmt.Sprintf("%s: %s", name, fe.Tag()))
	}
	return errors.New(strings.Join(msgs, "; "))
}
