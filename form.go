package ripple

import (
	"context"
	"sync"

	"github.com/go-playground/validator/v10"
	"github.com/zoobzio/capitan"
)

// Form triggers. Collaborators that scrape real controls map their
// native notifications onto these names.
const (
	// TriggerChange fires when a control's value is committed.
	TriggerChange = "change"

	// TriggerKeyUp fires when a key is released inside a text control.
	TriggerKeyUp = "keyup"
)

// FieldKind enumerates the trackable form control types.
type FieldKind int

const (
	// KindText is a single-line text input.
	KindText FieldKind = iota
	// KindTextArea is a multi-line text input.
	KindTextArea
	// KindCheckbox is an on/off toggle carrying a value when checked.
	KindCheckbox
	// KindRadio is one member of a mutually exclusive group.
	KindRadio
	// KindSelect is a single-choice option list.
	KindSelect
	// KindSelectMultiple is a multi-choice option list.
	KindSelectMultiple
)

// String returns the string representation of the kind.
func (k FieldKind) String() string {
	switch k {
	case KindText:
		return "text"
	case KindTextArea:
		return "textarea"
	case KindCheckbox:
		return "checkbox"
	case KindRadio:
		return "radio"
	case KindSelect:
		return "select"
	case KindSelectMultiple:
		return "select-multiple"
	default:
		return "unknown"
	}
}

// SelectOption is one option of a select control, in document order.
type SelectOption struct {
	Value    string
	Selected bool
}

// Field is a snapshot of a form control at event time.
type Field struct {
	// Name is the control's name attribute. Controls without a name are
	// ignored.
	Name string

	// Kind selects the sync rule applied to the control.
	Kind FieldKind

	// Value is the control's current value.
	Value string

	// Checked reports whether a checkbox or radio is selected.
	Checked bool

	// Options holds a select control's options in document order.
	Options []SelectOption
}

// FieldEvent pairs a trigger name with the control snapshot that fired it.
type FieldEvent struct {
	Trigger string
	Field   Field
}

// Form keeps a plain map in sync with form-field events. It is the
// non-batching counterpart to Store: every qualifying event mutates the
// target synchronously and fires the change callback immediately. There
// is no coalescing window and no handler registry.
//
// Sync rules per control kind:
//   - text, textarea: synced on change and keyup.
//   - checkbox, radio: synced on change; the value is written when
//     checked and the key is deleted when unchecked.
//   - select: synced on change; a single select writes the selected
//     option's value, a multiple select writes the selected option
//     values as an ordered slice.
type Form struct {
	mu        sync.Mutex
	target    map[string]any
	rules     map[string]string
	validate  *validator.Validate
	onChange  func(name string)
	onViolate func(name string, err error)
}

// NewForm creates a Form that mutates target in place on every
// qualifying event. A nil target allocates a fresh mapping; retrieve it
// with Target. Each form owns its validator instance.
func NewForm(target map[string]any) *Form {
	if target == nil {
		target = make(map[string]any)
	}
	return &Form{target: target, validate: validator.New()}
}

// OnChange sets a callback invoked synchronously with the changed
// field's name immediately after each mutation.
func (f *Form) OnChange(fn func(name string)) *Form {
	f.onChange = fn
	return f
}

// Rules sets per-field validation rules as validator tag expressions,
// e.g. {"email": "required,email"}. Rules are checked after each write;
// a violation is reported but the write stands.
func (f *Form) Rules(rules map[string]string) *Form {
	f.rules = rules
	return f
}

// OnRuleViolation sets a callback invoked when a written value fails its
// field's validation rule.
func (f *Form) OnRuleViolation(fn func(name string, err error)) *Form {
	f.onViolate = fn
	return f
}

// Validator replaces the form's validator instance, for rules that need
// custom registered validations. A nil v is ignored.
func (f *Form) Validator(v *validator.Validate) *Form {
	if v != nil {
		f.validate = v
	}
	return f
}

// Apply applies one field event to the target, returning whether the
// event qualified and mutated state. Events for unnamed controls, and
// triggers a control kind does not track, are ignored.
func (f *Form) Apply(ctx context.Context, ev FieldEvent) bool {
	field := ev.Field
	if field.Name == "" {
		return false
	}

	switch field.Kind {
	case KindText, KindTextArea:
		if ev.Trigger != TriggerChange && ev.Trigger != TriggerKeyUp {
			return false
		}
		f.write(ctx, field.Name, field.Value, ev.Trigger)

	case KindCheckbox, KindRadio:
		if ev.Trigger != TriggerChange {
			return false
		}
		if field.Checked {
			f.write(ctx, field.Name, field.Value, ev.Trigger)
		} else {
			f.remove(ctx, field.Name, ev.Trigger)
		}

	case KindSelect:
		if ev.Trigger != TriggerChange {
			return false
		}
		value := field.Value
		for _, opt := range field.Options {
			if opt.Selected {
				value = opt.Value
				break
			}
		}
		f.write(ctx, field.Name, value, ev.Trigger)

	case KindSelectMultiple:
		if ev.Trigger != TriggerChange {
			return false
		}
		values := make([]string, 0, len(field.Options))
		for _, opt := range field.Options {
			if opt.Selected {
				values = append(values, opt.Value)
			}
		}
		f.write(ctx, field.Name, values, ev.Trigger)

	default:
		return false
	}

	return true
}

// Consume applies events from the channel until ctx is canceled or the
// channel closes.
func (f *Form) Consume(ctx context.Context, events <-chan FieldEvent) {
	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-events:
			if !ok {
				return
			}
			f.Apply(ctx, ev)
		}
	}
}

// Target returns the live mapping mutated by Apply. Callers that read it
// while events are being consumed must use Values instead.
func (f *Form) Target() map[string]any {
	return f.target
}

// Values returns a snapshot copy of the bound state.
func (f *Form) Values() map[string]any {
	f.mu.Lock()
	defer f.mu.Unlock()
	snapshot := make(map[string]any, len(f.target))
	for name, value := range f.target {
		snapshot[name] = value
	}
	return snapshot
}

// Value returns the bound value for name and whether it is present.
func (f *Form) Value(name string) (any, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	v, ok := f.target[name]
	return v, ok
}

// write commits one field value, checks its rule, and fires callbacks.
func (f *Form) write(ctx context.Context, name string, value any, trigger string) {
	f.mu.Lock()
	f.target[name] = value
	rule := f.rules[name]
	f.mu.Unlock()

	capitan.Emit(ctx, FormFieldSynced,
		KeyField.Field(name),
		KeyTrigger.Field(trigger),
	)

	if rule != "" {
		if err := f.validate.Var(value, rule); err != nil {
			capitan.Emit(ctx, FormRuleViolated,
				KeyField.Field(name),
				KeyError.Field(err.Error()),
			)
			if f.onViolate != nil {
				f.onViolate(name, err)
			}
		}
	}

	if f.onChange != nil {
		f.onChange(name)
	}
}

// remove deletes one field key and fires the change callback.
func (f *Form) remove(ctx context.Context, name, trigger string) {
	f.mu.Lock()
	delete(f.target, name)
	f.mu.Unlock()

	capitan.Emit(ctx, FormFieldSynced,
		KeyField.Field(name),
		KeyTrigger.Field(trigger),
	)

	if f.onChange != nil {
		f.onChange(name)
	}
}
