package Controllers

import (
	"errors"
	"log"
	"reflect"
	"strings"
	"time"

	"Dashspect/Models"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	en_translations "github.com/go-playground/validator/v10/translations/en"
	"github.com/gofiber/fiber/v2"
)

var (
	validate *validator.Validate
	trans    ut.Translator
)

func init() {
	validate = validator.New()
	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	english := en.New()
	uni := ut.New(english, english)
	trans, _ = uni.GetTranslator("en")
	if err := en_translations.RegisterDefaultTranslations(validate, trans); err != nil {
		log.Printf("Error registering validation messages: %v", err)
	}

	registerValidation("clock", "{0} must be a time in HH:MM format", func(fl validator.FieldLevel) bool {
		_, err := Models.ParseClock(fl.Field().String())
		return err == nil
	})
	registerValidation("isodate", "{0} must be a date in YYYY-MM-DD format", func(fl validator.FieldLevel) bool {
		_, err := time.Parse("2006-01-02", fl.Field().String())
		return err == nil
	})
}

func registerValidation(tag, message string, fn validator.Func) {
	if err := validate.RegisterValidation(tag, fn); err != nil {
		log.Printf("Error registering %s validation: %v", tag, err)
		return
	}
	err := validate.RegisterTranslation(tag, trans, func(t ut.Translator) error {
		return t.Add(tag, message, true)
	}, func(t ut.Translator, fe validator.FieldError) string {
		msg, _ := t.T(tag, fe.Field())
		return msg
	})
	if err != nil {
		log.Printf("Error registering %s message: %v", tag, err)
	}
}

// bindJSON parses the body into out and validates it. A non-nil map is the
// 400 response to send.
func bindJSON(ctx *fiber.Ctx, out interface{}) fiber.Map {
	if err := ctx.BodyParser(out); err != nil {
		return fiber.Map{"error": err.Error()}
	}
	if err := validate.Struct(out); err != nil {
		var verrs validator.ValidationErrors
		if !errors.As(err, &verrs) {
			return fiber.Map{"error": err.Error()}
		}
		fields := make(map[string]string, len(verrs))
		for _, fe := range verrs {
			fields[fe.Field()] = fe.Translate(trans)
		}
		return fiber.Map{"error": "Validation failed", "fields": fields}
	}
	return nil
}

func isDuplicate(err error) bool {
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "unique constraint") || strings.Contains(msg, "duplicate entry")
}
