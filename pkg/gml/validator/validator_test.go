package validator

import (
	"strings"
	"testing"

	"mercator-hq/ganymede/pkg/gml/ast"
	gmlErrors "mercator-hq/ganymede/pkg/gml/errors"
)

func fptr(f float64) *float64 { return &f }

// minimalRule returns a rule that passes every check.
func minimalRule(name string) *ast.Rule {
	return &ast.Rule{Name: name, Actions: &ast.ActionBundle{Skip: true}}
}

func oneRuleSet(rules ...*ast.Rule) *ast.RuleFile {
	return &ast.RuleFile{
		RuleSets: []*ast.RuleSet{{Name: "main", Content: "item", Rules: rules}},
	}
}

func TestStructuralValidator_Validate(t *testing.T) {
	tests := []struct {
		name     string
		file     *ast.RuleFile
		wantErr  bool
		wantWarn int
	}{
		{
			name:    "valid file",
			file:    oneRuleSet(minimalRule("ok")),
			wantErr: false,
		},
		{
			name: "missing content",
			file: &ast.RuleFile{
				RuleSets: []*ast.RuleSet{{Name: "nameless", Rules: []*ast.Rule{minimalRule("r")}}},
			},
			wantErr: true,
		},
		{
			name:    "rule without actions",
			file:    oneRuleSet(&ast.Rule{Name: "inert"}),
			wantErr: true,
		},
		{
			name: "empty ruleset warns",
			file: &ast.RuleFile{
				RuleSets: []*ast.RuleSet{{Name: "hollow", Content: "item"}},
			},
			wantErr:  false,
			wantWarn: 1,
		},
		{
			name:     "no rulesets warns",
			file:     &ast.RuleFile{},
			wantErr:  false,
			wantWarn: 1,
		},
		{
			name: "sequence step zero warns",
			file: oneRuleSet(&ast.Rule{
				Name: "number",
				Actions: &ast.ActionBundle{
					Sequences: []*ast.SequenceAssign{{Path: "id", Spec: &ast.SequenceSpec{Start: 1, Step: 0}}},
				},
			}),
			wantErr:  false,
			wantWarn: 1,
		},
		{
			name: "condition without path warns",
			file: oneRuleSet(&ast.Rule{
				Name:       "pathless",
				Conditions: []*ast.Condition{{Kind: ast.ConditionStructured}},
				Actions:    &ast.ActionBundle{Skip: true},
			}),
			wantErr:  false,
			wantWarn: 1,
		},
		{
			name: "min greater than max warns",
			file: oneRuleSet(&ast.Rule{
				Name: "inverted",
				Conditions: []*ast.Condition{{
					Kind: ast.ConditionStructured,
					Path: "price",
					Min:  fptr(10),
					Max:  fptr(5),
				}},
				Actions: &ast.ActionBundle{Skip: true},
			}),
			wantErr:  false,
			wantWarn: 1,
		},
		{
			name: "invalid static regex warns",
			file: oneRuleSet(&ast.Rule{
				Name: "badpattern",
				Conditions: []*ast.Condition{{
					Kind:     ast.ConditionStructured,
					Path:     "name",
					Regex:    "[unclosed",
					HasRegex: true,
				}},
				Actions: &ast.ActionBundle{Skip: true},
			}),
			wantErr:  false,
			wantWarn: 1,
		},
		{
			name: "regex with placeholder is deferred",
			file: oneRuleSet(&ast.Rule{
				Name: "dynamic",
				Conditions: []*ast.Condition{{
					Kind:     ast.ConditionStructured,
					Path:     "name",
					Regex:    "{prefix}[unclosed",
					HasRegex: true,
				}},
				Actions: &ast.ActionBundle{Skip: true},
			}),
			wantErr:  false,
			wantWarn: 0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := NewStructuralValidator()
			err := v.Validate(tt.file)

			if (err != nil) != tt.wantErr {
				t.Fatalf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.wantErr {
				if _, ok := err.(*gmlErrors.ErrorList); !ok {
					t.Fatalf("error type = %T, want *ErrorList", err)
				}
			}
			if got := len(v.Warnings()); got != tt.wantWarn {
				t.Errorf("len(Warnings()) = %d, want %d: %v", got, tt.wantWarn, v.Warnings())
			}
		})
	}
}

func TestSemanticValidator_RuleCycles(t *testing.T) {
	tests := []struct {
		name  string
		rules []*ast.Rule
	}{
		{
			name: "two rule cycle",
			rules: []*ast.Rule{
				{Name: "a", DependsOn: []string{"b"}, Actions: &ast.ActionBundle{Skip: true}},
				{Name: "b", DependsOn: []string{"a"}, Actions: &ast.ActionBundle{Skip: true}},
			},
		},
		{
			name: "self dependency",
			rules: []*ast.Rule{
				{Name: "a", DependsOn: []string{"a"}, Actions: &ast.ActionBundle{Skip: true}},
			},
		},
		{
			name: "three rule cycle",
			rules: []*ast.Rule{
				{Name: "a", DependsOn: []string{"c"}, Actions: &ast.ActionBundle{Skip: true}},
				{Name: "b", DependsOn: []string{"a"}, Actions: &ast.ActionBundle{Skip: true}},
				{Name: "c", DependsOn: []string{"b"}, Actions: &ast.ActionBundle{Skip: true}},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := NewSemanticValidator()
			err := v.Validate(oneRuleSet(tt.rules...))
			if err == nil {
				t.Fatal("Validate() should report the cycle")
			}
			list, ok := err.(*gmlErrors.ErrorList)
			if !ok {
				t.Fatalf("error type = %T, want *ErrorList", err)
			}
			if !list.HasErrorType(gmlErrors.ErrorTypeSemantic) {
				t.Errorf("want a semantic error, got %v", list.Errors)
			}
			if !strings.Contains(err.Error(), "dependency cycle among rules") {
				t.Errorf("error = %q, want cycle report", err.Error())
			}
		})
	}
}

func TestSemanticValidator_ChainIsNotACycle(t *testing.T) {
	file := oneRuleSet(
		minimalRule("first"),
		&ast.Rule{Name: "second", DependsOn: []string{"first"}, Actions: &ast.ActionBundle{Skip: true}},
		&ast.Rule{Name: "third", DependsOn: []string{"first", "second"}, Actions: &ast.ActionBundle{Skip: true}},
	)

	v := NewSemanticValidator()
	if err := v.Validate(file); err != nil {
		t.Fatalf("Validate() = %v, want nil", err)
	}
	if len(v.Warnings()) != 0 {
		t.Errorf("Warnings() = %v, want none", v.Warnings())
	}
}

func TestSemanticValidator_RuleSetCycle(t *testing.T) {
	file := &ast.RuleFile{
		RuleSets: []*ast.RuleSet{
			{Name: "a", Content: "item", DependsOn: []string{"b"}, Rules: []*ast.Rule{minimalRule("r")}},
			{Name: "b", Content: "monster", DependsOn: []string{"a"}, Rules: []*ast.Rule{minimalRule("r")}},
		},
	}

	v := NewSemanticValidator()
	err := v.Validate(file)
	if err == nil {
		t.Fatal("Validate() should report the ruleset cycle")
	}
	if !strings.Contains(err.Error(), "dependency cycle among rulesets") {
		t.Errorf("error = %q, want ruleset cycle report", err.Error())
	}
}

func TestSemanticValidator_Warnings(t *testing.T) {
	tests := []struct {
		name string
		file *ast.RuleFile
		want string
	}{
		{
			name: "unknown rule dependency",
			file: oneRuleSet(&ast.Rule{
				Name: "a", DependsOn: []string{"ghost"},
				Actions: &ast.ActionBundle{Skip: true},
			}),
			want: "is not defined in ruleset",
		},
		{
			name: "forward rule dependency",
			file: oneRuleSet(
				&ast.Rule{Name: "early", DependsOn: []string{"late"}, Actions: &ast.ActionBundle{Skip: true}},
				minimalRule("late"),
			),
			want: "can never be satisfied",
		},
		{
			name: "duplicate rule names",
			file: oneRuleSet(minimalRule("twin"), minimalRule("twin")),
			want: "more than once",
		},
		{
			name: "unknown ruleset dependency",
			file: &ast.RuleFile{
				RuleSets: []*ast.RuleSet{{
					Name: "only", Content: "item", DependsOn: []string{"phantom"},
					Rules: []*ast.Rule{minimalRule("r")},
				}},
			},
			want: "skipped for every document",
		},
		{
			name: "independent sequence on unnamed rule",
			file: oneRuleSet(&ast.Rule{
				Actions: &ast.ActionBundle{
					Sequences: []*ast.SequenceAssign{{Path: "id", Spec: &ast.SequenceSpec{Step: 1}}},
				},
			}),
			want: "name the rule or give the sequence an 'id'",
		},
		{
			name: "retained compile failure",
			file: oneRuleSet(&ast.Rule{
				Name: "broken",
				Actions: &ast.ActionBundle{
					Sets: []*ast.Assign{{Path: "x", Value: ast.ExprSpec("1 +")}},
				},
			}),
			want: "does not compile",
		},
		{
			name: "duplicate context variable",
			file: &ast.RuleFile{
				RuleSets: []*ast.RuleSet{{
					Name: "main", Content: "item",
					Context: []*ast.ContextVar{
						{Name: "x", Value: ast.LiteralSpec(1)},
						{Name: "x", Value: ast.LiteralSpec(2)},
					},
					Rules: []*ast.Rule{minimalRule("r")},
				}},
			},
			want: "defined more than once",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := NewSemanticValidator()
			if err := v.Validate(tt.file); err != nil {
				t.Fatalf("Validate() = %v, want warnings only", err)
			}
			warns := v.Warnings()
			if len(warns) == 0 {
				t.Fatal("Warnings() is empty")
			}
			found := false
			for _, w := range warns {
				if strings.Contains(w.Message, tt.want) {
					found = true
					break
				}
			}
			if !found {
				t.Errorf("no warning contains %q: %v", tt.want, warns)
			}
		})
	}
}

func TestValidator_StrictMode(t *testing.T) {
	// Only warnings: an unknown dependency target.
	file := oneRuleSet(&ast.Rule{
		Name: "a", DependsOn: []string{"ghost"},
		Actions: &ast.ActionBundle{Skip: true},
	})

	lenient := NewValidator()
	if err := lenient.Validate(file); err != nil {
		t.Fatalf("lenient Validate() = %v, want nil", err)
	}
	if len(lenient.Warnings()) == 0 {
		t.Error("lenient Warnings() should not be empty")
	}

	strict := NewValidator().WithStrictMode(true)
	err := strict.Validate(file)
	if err == nil {
		t.Fatal("strict Validate() should fail on warnings")
	}
	list, ok := err.(*gmlErrors.ErrorList)
	if !ok {
		t.Fatalf("error type = %T, want *ErrorList", err)
	}
	if list.Count() == 0 {
		t.Error("strict error list is empty")
	}
}

// Semantic checks assume structure, so a structural failure suppresses
// them.
func TestValidator_GatesSemanticOnStructure(t *testing.T) {
	file := &ast.RuleFile{
		RuleSets: []*ast.RuleSet{{
			Name: "broken", // no content: structural error
			Rules: []*ast.Rule{
				{Name: "a", DependsOn: []string{"b"}, Actions: &ast.ActionBundle{Skip: true}},
				{Name: "b", DependsOn: []string{"a"}, Actions: &ast.ActionBundle{Skip: true}},
			},
		}},
	}

	v := NewValidator()
	err := v.Validate(file)
	if err == nil {
		t.Fatal("Validate() should fail")
	}
	list, ok := err.(*gmlErrors.ErrorList)
	if !ok {
		t.Fatalf("error type = %T, want *ErrorList", err)
	}
	if !list.HasErrorType(gmlErrors.ErrorTypeStructural) {
		t.Error("want a structural error")
	}
	if list.HasErrorType(gmlErrors.ErrorTypeSemantic) {
		t.Error("semantic checks should not run when structure is broken")
	}
}

func TestValidator_ValidFile(t *testing.T) {
	file := &ast.RuleFile{
		Name: "clean",
		RuleSets: []*ast.RuleSet{{
			Name:    "main",
			Content: "item",
			Context: []*ast.ContextVar{{Name: "scale", Value: ast.ExprSpec("2 * 2")}},
			Rules: []*ast.Rule{
				minimalRule("first"),
				&ast.Rule{
					Name:      "second",
					DependsOn: []string{"first"},
					Conditions: []*ast.Condition{{
						Kind: ast.ConditionStructured,
						Path: "price",
						Min:  fptr(0),
					}},
					Actions: &ast.ActionBundle{
						Sets: []*ast.Assign{{Path: "price", Value: ast.ExprSpec("price * scale")}},
					},
				},
			},
		}},
	}

	v := NewValidator()
	if err := v.Validate(file); err != nil {
		t.Fatalf("Validate() = %v, want nil", err)
	}
	if len(v.Warnings()) != 0 {
		t.Errorf("Warnings() = %v, want none", v.Warnings())
	}
}
