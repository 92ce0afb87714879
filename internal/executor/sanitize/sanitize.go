// Package sanitize neutralizes host-reaching API usage in a snippet before it
// is evaluated.
//
// The pass is purely lexical: each rule is a regular expression applied over
// the whole source, in order, and every match is replaced with the comment
// Placeholder, followed by "(" or "(void 0)" where the rule's form needs it.
// Nothing is parsed, so the policy both over-matches (a string literal
// containing "window." is rewritten too) and under-matches (aliased or
// computed access such as globalThis["ev"+"al"] slips through). It is a
// best-effort mitigation layered on top of the isolated runtime, not a
// security boundary.
package sanitize

import (
	"regexp"
	"strings"
)

// Placeholder is the inert marker substituted for every match.
const Placeholder = "/* blocked */"

// Sanitizer rewrites snippet source before evaluation.
type Sanitizer interface {
	Sanitize(source string) string
}

// Rule is one denylisted pattern.
//
// Call-form rules consume the opening parenthesis of the call and put it back
// after the placeholder, so fetch("u") becomes /* blocked */("u"): the call
// disappears and the argument list is left as a parenthesized expression that
// still compiles. An empty argument list becomes (void 0).
//
// Value rules stand for an identifier used as an expression. The match
// becomes /* blocked */(void 0), so new XMLHttpRequest() and typeof
// XMLHttpRequest still parse and see undefined.
type Rule struct {
	Name    string
	Pattern *regexp.Regexp
	Call    bool
	Value   bool
}

func (r Rule) replace(match string) string {
	if r.Value {
		return Placeholder + "(void 0)"
	}
	if !r.Call {
		return Placeholder
	}
	if strings.HasSuffix(match, ")") {
		return Placeholder + "(void 0)"
	}
	return Placeholder + "("
}

// Finding reports how many times a rule fired on a source.
type Finding struct {
	Rule  string
	Count int
}

// Policy is an ordered set of rules. Order matters: rules are applied left to
// right and each sees the output of the previous one.
type Policy struct {
	rules []Rule
}

// New builds a policy from rules, applied in the given order.
func New(rules ...Rule) *Policy {
	return &Policy{rules: append([]Rule(nil), rules...)}
}

// CallRule denylists calls to name (name followed by optional whitespace and
// "("). A call with no arguments is matched through its closing parenthesis.
func CallRule(ruleName, name string) Rule {
	return Rule{
		Name:    ruleName,
		Pattern: regexp.MustCompile(regexp.QuoteMeta(name) + `\s*\((?:\s*\))?`),
		Call:    true,
	}
}

// Default returns the built-in denylist: network primitives, dynamic
// evaluation, timers, host globals and module linkage.
func Default() *Policy {
	return New(
		CallRule("fetch", "fetch"),
		Rule{Name: "xhr", Pattern: regexp.MustCompile(`XMLHttpRequest`), Value: true},
		CallRule("eval", "eval"),
		CallRule("function-ctor", "Function"),
		CallRule("set-timeout", "setTimeout"),
		CallRule("set-interval", "setInterval"),
		Rule{Name: "document", Pattern: regexp.MustCompile(`document\.`)},
		Rule{Name: "window", Pattern: regexp.MustCompile(`window\.`)},
		Rule{Name: "global", Pattern: regexp.MustCompile(`global\.`)},
		Rule{Name: "process", Pattern: regexp.MustCompile(`process\.`)},
		CallRule("require", "require"),
		Rule{Name: "import", Pattern: regexp.MustCompile(`import\s+`)},
		Rule{Name: "export", Pattern: regexp.MustCompile(`export\s+`)},
	)
}

// Rules returns a copy of the policy's rules in application order.
func (p *Policy) Rules() []Rule {
	return append([]Rule(nil), p.rules...)
}

// Sanitize applies every rule to source and returns the neutralized text.
// It never fails; empty input yields empty output.
func (p *Policy) Sanitize(source string) string {
	out, _ := p.apply(source)
	return out
}

// Findings lists the rules that fire on source, in rule order, with the
// number of replacements each made. Rules that do not fire are omitted.
func (p *Policy) Findings(source string) []Finding {
	_, findings := p.apply(source)
	return findings
}

func (p *Policy) apply(source string) (string, []Finding) {
	var findings []Finding
	for _, rule := range p.rules {
		n := len(rule.Pattern.FindAllStringIndex(source, -1))
		if n == 0 {
			continue
		}
		source = rule.Pattern.ReplaceAllStringFunc(source, rule.replace)
		findings = append(findings, Finding{Rule: rule.Name, Count: n})
	}
	return source, findings
}
