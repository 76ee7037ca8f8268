package aspectlog

import (
	"maps"
)

// Variables bound in every call context.
const (
	VarArgs      = "args"
	VarMethod    = "method"
	VarReceiver  = "it"
	VarClassName = "className"
	VarPackage   = "package"
)

// Variables added by CallContext.WithReturn.
const (
	VarReturn            = "return"
	VarReturnTypeName    = "returnTypeName"
	VarReturnTypePackage = "returnTypePackage"
)

// Variables added by CallContext.WithThrown.
const (
	VarException        = "exception"
	VarExceptionName    = "exceptionName"
	VarExceptionPackage = "exceptionPackage"
)

type outcome int

const (
	outcomeNone outcome = iota
	outcomeReturned
	outcomeThrown
)

// CallContext is the variable set a template is rendered against. It is
// built fresh for every intercepted call and never shared.
type CallContext struct {
	vars    map[string]any
	outcome outcome
}

// NewCallContext binds the base variables for call.
func NewCallContext(call *Call) *CallContext {
	args := call.Args
	if args == nil {
		args = []any{}
	}
	return &CallContext{
		vars: map[string]any{
			VarArgs:      args,
			VarMethod:    call.Method.Name,
			VarReceiver:  call.Receiver,
			VarClassName: call.Method.Type.Name,
			VarPackage:   call.Method.Type.Package,
		},
	}
}

// Lookup implements expr.Vars.
func (c *CallContext) Lookup(name string) (any, bool) {
	v, ok := c.vars[name]
	return v, ok
}

// Vars returns a copy of the bound variables.
func (c *CallContext) Vars() map[string]any {
	return maps.Clone(c.vars)
}

// WithReturn returns a new context extended with the return value variables.
// It fails if c already carries a return or throw extension.
func (c *CallContext) WithReturn(value any) (*CallContext, error) {
	if c.outcome != outcomeNone {
		return nil, ErrOutcomeAlreadyBound
	}
	ext := c.extend(outcomeReturned)
	ext.vars[VarReturn] = value
	if value == nil {
		ext.vars[VarReturnTypeName] = nil
		ext.vars[VarReturnTypePackage] = nil
	} else {
		t := TypeOf(value)
		ext.vars[VarReturnTypeName] = t.Name
		ext.vars[VarReturnTypePackage] = t.Package
	}
	return ext, nil
}

// WithThrown returns a new context extended with the thrown value variables.
// thrown is usually an error but may be any value recovered from a panic.
// It fails if c already carries a return or throw extension.
func (c *CallContext) WithThrown(thrown any) (*CallContext, error) {
	if c.outcome != outcomeNone {
		return nil, ErrOutcomeAlreadyBound
	}
	ext := c.extend(outcomeThrown)
	ext.vars[VarException] = thrown
	if thrown == nil {
		ext.vars[VarExceptionName] = nil
		ext.vars[VarExceptionPackage] = nil
	} else {
		t := TypeOf(thrown)
		ext.vars[VarExceptionName] = t.Name
		ext.vars[VarExceptionPackage] = t.Package
	}
	return ext, nil
}

func (c *CallContext) extend(o outcome) *CallContext {
	vars := make(map[string]any, len(c.vars)+3)
	maps.Copy(vars, c.vars)
	return &CallContext{vars: vars, outcome: o}
}
