package config

import (
	"fmt"

	"github.com/go-playground/validator/v10"
	"github.com/mitchellh/mapstructure"
)

// Binder decodes map[string]any data into Go structs and validates the result.
//
// Decoding uses mapstructure with the `config` tag, weak typing ("8080" to
// int) and hooks for durations ("5s") and comma-separated slices. Validation
// uses go-playground/validator with the `validate` tag.
//
//	type ServerConfig struct {
//	    Addr    string        `config:"addr" validate:"required"`
//	    Timeout time.Duration `config:"timeout" validate:"required"`
//	}
type Binder struct {
	validator *validator.Validate
}

const (
	StageDecode   = "decode"
	StageValidate = "validate"
)

// BindError reports which stage of Bind failed: StageDecode for malformed
// data, StageValidate for values that break a rule.
type BindError struct {
	Stage string
	Err   error
}

func (e *BindError) Error() string {
	return fmt.Sprintf("config %s error: %v", e.Stage, e.Err)
}

func (e *BindError) Unwrap() error {
	return e.Err
}

func NewBinder() *Binder {
	return &Binder{
		validator: validator.New(),
	}
}

// Bind decodes source into target, a pointer to a struct, then validates
// it. On a validation failure target is left decoded.
func (b *Binder) Bind(source map[string]any, target any) error {
	if err := b.decode(source, target); err != nil {
		return &BindError{Stage: StageDecode, Err: err}
	}

	if err := b.validator.Struct(target); err != nil {
		return &BindError{Stage: StageValidate, Err: err}
	}

	return nil
}

func (b *Binder) decode(source map[string]any, target any) error {
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           target,
		WeaklyTypedInput: true,
		DecodeHook: mapstructure.ComposeDecodeHookFunc(
			mapstructure.StringToTimeDurationHookFunc(),
			mapstructure.StringToSliceHookFunc(","),
		),
		TagName: "config",
	})
	if err != nil {
		return err
	}

	return decoder.Decode(source)
}
