package ripple

import (
	"context"
	"reflect"
	"strings"
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
)

func TestForm_TextSyncsOnChangeAndKeyUp(t *testing.T) {
	ctx := context.Background()
	form := NewForm(nil)

	form.Apply(ctx, FieldEvent{
		Trigger: TriggerKeyUp,
		Field:   Field{Name: "title", Kind: KindText, Value: "he"},
	})
	if v, _ := form.Value("title"); v != "he" {
		t.Errorf("expected keyup to sync, got %v", v)
	}

	form.Apply(ctx, FieldEvent{
		Trigger: TriggerChange,
		Field:   Field{Name: "title", Kind: KindText, Value: "hello"},
	})
	if v, _ := form.Value("title"); v != "hello" {
		t.Errorf("expected change to sync, got %v", v)
	}
}

func TestForm_TextAreaSyncsOnKeyUp(t *testing.T) {
	ctx := context.Background()
	form := NewForm(nil)

	if !form.Apply(ctx, FieldEvent{
		Trigger: TriggerKeyUp,
		Field:   Field{Name: "bio", Kind: KindTextArea, Value: "line one"},
	}) {
		t.Fatal("expected textarea keyup to qualify")
	}
	if v, _ := form.Value("bio"); v != "line one" {
		t.Errorf("expected bio synced, got %v", v)
	}
}

func TestForm_CheckboxKeyUpIgnored(t *testing.T) {
	ctx := context.Background()
	form := NewForm(nil)

	if form.Apply(ctx, FieldEvent{
		Trigger: TriggerKeyUp,
		Field:   Field{Name: "opt", Kind: KindCheckbox, Value: "yes", Checked: true},
	}) {
		t.Error("checkboxes must only sync on change")
	}
	if _, ok := form.Value("opt"); ok {
		t.Error("expected no value written")
	}
}

func TestForm_CheckboxUncheckRemovesKey(t *testing.T) {
	ctx := context.Background()
	form := NewForm(nil)

	form.Apply(ctx, FieldEvent{
		Trigger: TriggerChange,
		Field:   Field{Name: "opt", Kind: KindCheckbox, Value: "yes", Checked: true},
	})
	if v, ok := form.Value("opt"); !ok || v != "yes" {
		t.Fatalf("expected opt=yes after check, got %v (present=%v)", v, ok)
	}

	form.Apply(ctx, FieldEvent{
		Trigger: TriggerChange,
		Field:   Field{Name: "opt", Kind: KindCheckbox, Value: "yes", Checked: false},
	})
	if _, ok := form.Value("opt"); ok {
		t.Error("expected key deleted after uncheck")
	}
}

func TestForm_RadioCheckedWritesValue(t *testing.T) {
	ctx := context.Background()
	form := NewForm(nil)

	form.Apply(ctx, FieldEvent{
		Trigger: TriggerChange,
		Field:   Field{Name: "size", Kind: KindRadio, Value: "large", Checked: true},
	})
	if v, _ := form.Value("size"); v != "large" {
		t.Errorf("expected size=large, got %v", v)
	}
}

func TestForm_SelectSingleWritesSelectedOption(t *testing.T) {
	ctx := context.Background()
	form := NewForm(nil)

	form.Apply(ctx, FieldEvent{
		Trigger: TriggerChange,
		Field: Field{
			Name: "color",
			Kind: KindSelect,
			Options: []SelectOption{
				{Value: "red"},
				{Value: "green", Selected: true},
				{Value: "blue"},
			},
		},
	})
	if v, _ := form.Value("color"); v != "green" {
		t.Errorf("expected color=green, got %v", v)
	}
}

func TestForm_MultiSelectPreservesDocumentOrder(t *testing.T) {
	ctx := context.Background()
	form := NewForm(nil)

	form.Apply(ctx, FieldEvent{
		Trigger: TriggerChange,
		Field: Field{
			Name: "tags",
			Kind: KindSelectMultiple,
			Options: []SelectOption{
				{Value: "x"},
				{Value: "y", Selected: true},
				{Value: "z", Selected: true},
			},
		},
	})

	v, ok := form.Value("tags")
	if !ok {
		t.Fatal("expected tags written")
	}
	if !reflect.DeepEqual(v, []string{"y", "z"}) {
		t.Errorf("expected [y z] in document order, got %v", v)
	}
}

func TestForm_MultiSelectNoneSelectedWritesEmptySlice(t *testing.T) {
	ctx := context.Background()
	form := NewForm(nil)

	form.Apply(ctx, FieldEvent{
		Trigger: TriggerChange,
		Field: Field{
			Name:    "tags",
			Kind:    KindSelectMultiple,
			Options: []SelectOption{{Value: "x"}, {Value: "y"}},
		},
	})

	v, ok := form.Value("tags")
	if !ok {
		t.Fatal("expected tags written")
	}
	if got := v.([]string); len(got) != 0 {
		t.Errorf("expected empty selection, got %v", got)
	}
}

func TestForm_UnnamedFieldIgnored(t *testing.T) {
	ctx := context.Background()
	form := NewForm(nil)

	if form.Apply(ctx, FieldEvent{
		Trigger: TriggerChange,
		Field:   Field{Kind: KindText, Value: "orphan"},
	}) {
		t.Error("unnamed fields must be ignored")
	}
	if len(form.Values()) != 0 {
		t.Errorf("expected empty state, got %v", form.Values())
	}
}

func TestForm_OnChangeFiresSynchronously(t *testing.T) {
	ctx := context.Background()

	var changed []string
	form := NewForm(nil).OnChange(func(name string) {
		changed = append(changed, name)
	})

	form.Apply(ctx, FieldEvent{
		Trigger: TriggerChange,
		Field:   Field{Name: "a", Kind: KindText, Value: "1"},
	})
	form.Apply(ctx, FieldEvent{
		Trigger: TriggerChange,
		Field:   Field{Name: "b", Kind: KindCheckbox, Value: "on", Checked: true},
	})
	form.Apply(ctx, FieldEvent{
		Trigger: TriggerChange,
		Field:   Field{Name: "b", Kind: KindCheckbox, Value: "on", Checked: false},
	})

	// One callback per mutation, including the delete, in event order.
	want := []string{"a", "b", "b"}
	if !reflect.DeepEqual(changed, want) {
		t.Errorf("expected callbacks %v, got %v", want, changed)
	}
}

func TestForm_TargetMutatedInPlace(t *testing.T) {
	ctx := context.Background()

	target := map[string]any{"existing": "kept"}
	form := NewForm(target)

	form.Apply(ctx, FieldEvent{
		Trigger: TriggerChange,
		Field:   Field{Name: "a", Kind: KindText, Value: "1"},
	})

	if target["a"] != "1" {
		t.Error("expected the supplied target to be mutated in place")
	}
	if target["existing"] != "kept" {
		t.Error("expected existing keys untouched")
	}
	if form.Target()["a"] != "1" {
		t.Error("expected Target to return the live mapping")
	}
}

func TestForm_RuleViolationReportedButValueStands(t *testing.T) {
	ctx := context.Background()

	var violated string
	form := NewForm(nil).
		Rules(map[string]string{"email": "required,email"}).
		OnRuleViolation(func(name string, err error) {
			violated = name
			if err == nil {
				t.Error("expected a validation error")
			}
		})

	form.Apply(ctx, FieldEvent{
		Trigger: TriggerChange,
		Field:   Field{Name: "email", Kind: KindText, Value: "not-an-email"},
	})

	if violated != "email" {
		t.Errorf("expected violation for email, got %q", violated)
	}
	if v, _ := form.Value("email"); v != "not-an-email" {
		t.Errorf("expected the write to stand, got %v", v)
	}

	violated = ""
	form.Apply(ctx, FieldEvent{
		Trigger: TriggerChange,
		Field:   Field{Name: "email", Kind: KindText, Value: "a@example.com"},
	})
	if violated != "" {
		t.Errorf("expected no violation for a valid value, got %q", violated)
	}
}

func TestForm_ValidatorIsInstanceOwned(t *testing.T) {
	ctx := context.Background()

	custom := validator.New()
	if err := custom.RegisterValidation("shout", func(fl validator.FieldLevel) bool {
		s := fl.Field().String()
		return s == strings.ToUpper(s)
	}); err != nil {
		t.Fatalf("RegisterValidation failed: %v", err)
	}

	var violated []string
	loud := NewForm(nil).
		Validator(custom).
		Rules(map[string]string{"name": "shout"}).
		OnRuleViolation(func(name string, _ error) {
			violated = append(violated, name)
		})

	loud.Apply(ctx, FieldEvent{
		Trigger: TriggerChange,
		Field:   Field{Name: "name", Kind: KindText, Value: "quiet"},
	})
	loud.Apply(ctx, FieldEvent{
		Trigger: TriggerChange,
		Field:   Field{Name: "name", Kind: KindText, Value: "LOUD"},
	})

	if !reflect.DeepEqual(violated, []string{"name"}) {
		t.Errorf("expected one violation for the lowercase write, got %v", violated)
	}

	// The registration lives on this form's validator only; a fresh form
	// keeps working with its own instance and standard rules.
	other := NewForm(nil).
		Rules(map[string]string{"email": "email"}).
		OnRuleViolation(func(name string, _ error) {
			violated = append(violated, name)
		})
	other.Apply(ctx, FieldEvent{
		Trigger: TriggerChange,
		Field:   Field{Name: "email", Kind: KindText, Value: "a@example.com"},
	})
	if len(violated) != 1 {
		t.Errorf("expected no violation on the second form, got %v", violated)
	}
}

func TestForm_Consume(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	form := NewForm(nil)
	events := make(chan FieldEvent, 2)
	events <- FieldEvent{
		Trigger: TriggerChange,
		Field:   Field{Name: "a", Kind: KindText, Value: "1"},
	}
	events <- FieldEvent{
		Trigger: TriggerChange,
		Field:   Field{Name: "b", Kind: KindText, Value: "2"},
	}
	close(events)

	done := make(chan struct{})
	go func() {
		form.Consume(ctx, events)
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Consume did not return on channel close")
	}

	values := form.Values()
	if values["a"] != "1" || values["b"] != "2" {
		t.Errorf("expected both events applied, got %v", values)
	}
}

func TestFieldKind_String(t *testing.T) {
	kinds := map[FieldKind]string{
		KindText:           "text",
		KindTextArea:       "textarea",
		KindCheckbox:       "checkbox",
		KindRadio:          "radio",
		KindSelect:         "select",
		KindSelectMultiple: "select-multiple",
		FieldKind(99):      "unknown",
	}
	for kind, want := range kinds {
		if got := kind.String(); got != want {
			t.Errorf("kind %d: expected %q, got %q", int(kind), want, got)
		}
	}
}
