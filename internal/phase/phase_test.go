package phase

import "testing"

func TestAbbrevRoundTrip(t *testing.T) {
	for _, p := range []Phase{
		{1901, Spring, Talk},
		{1901, Spring, Movement},
		{1901, Fall, Retreats},
		{1902, Winter, Adjustments},
	} {
		abbrev := Abbrev(p)
		got, err := ParseAbbrev(abbrev)
		if err != nil {
			t.Fatalf("ParseAbbrev(%q): %v", abbrev, err)
		}
		if got != p {
			t.Errorf("round trip mismatch: %+v -> %q -> %+v", p, abbrev, got)
		}
	}
}

func TestParseAbbrevCaseInsensitive(t *testing.T) {
	p, err := ParseAbbrev("s1901t")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if p != (Phase{1901, Spring, Talk}) {
		t.Errorf("got %+v", p)
	}
}

func TestParseAbbrevRejectsInvalidCombinationWithoutPanicking(t *testing.T) {
	for _, s := range []string{"W1901T", "S1901A", "F1901A"} {
		if _, err := ParseAbbrev(s); err == nil {
			t.Errorf("ParseAbbrev(%q): expected error for invalid season/type combination", s)
		}
	}
}

func TestParseLongRejectsInvalidCombinationWithoutPanicking(t *testing.T) {
	for _, s := range []string{"WINTER 1901 TALK", "SPRING 1901 ADJUSTMENTS"} {
		if _, err := ParseLong(s); err == nil {
			t.Errorf("ParseLong(%q): expected error for invalid season/type combination", s)
		}
	}
}

func TestLongRoundTrip(t *testing.T) {
	p := Phase{1901, Spring, Talk}
	long := Long(p)
	if long != "SPRING 1901 TALK" {
		t.Errorf("expected 'SPRING 1901 TALK', got %q", long)
	}
	got, err := ParseLong(long)
	if err != nil {
		t.Fatalf("parse long: %v", err)
	}
	if got != p {
		t.Errorf("round trip mismatch: got %+v", got)
	}
}

func TestNextCycle(t *testing.T) {
	start := Phase{1901, Spring, Talk}
	want := []Phase{
		{1901, Spring, Movement},
		{1901, Spring, Retreats},
		{1901, Fall, Talk},
		{1901, Fall, Movement},
		{1901, Fall, Retreats},
		{1901, Winter, Adjustments},
		{1902, Spring, Talk},
	}
	p := start
	for i, w := range want {
		p = Next(p, nil)
		if p != w {
			t.Fatalf("step %d: expected %+v, got %+v", i, w, p)
		}
	}
}

func TestNextWithTypeFilter(t *testing.T) {
	m := Movement
	p := Next(Phase{1901, Spring, Talk}, &m)
	if p != (Phase{1901, Spring, Movement}) {
		t.Errorf("expected next movement phase, got %+v", p)
	}
	p = Next(Phase{1901, Spring, Movement}, &m)
	if p != (Phase{1901, Fall, Movement}) {
		t.Errorf("expected to skip past retreats/talk to fall movement, got %+v", p)
	}
}

func TestPreviousIsInverseOfNext(t *testing.T) {
	p := Phase{1901, Fall, Retreats}
	next := Next(p, nil)
	back := Previous(next, nil)
	if back != p {
		t.Errorf("expected Previous(Next(p)) == p, got %+v", back)
	}
}

func TestCompareAntisymmetric(t *testing.T) {
	a := Phase{1901, Spring, Talk}
	b := Phase{1901, Fall, Movement}
	if Compare(a, b) != -Compare(b, a) {
		t.Error("expected compare(a,b) == -compare(b,a)")
	}
	if Compare(a, a) != 0 {
		t.Error("expected compare(a,a) == 0")
	}
}

func TestCompareTotalOrderWithinYear(t *testing.T) {
	ordered := []Phase{
		{1901, Spring, Talk},
		{1901, Spring, Movement},
		{1901, Spring, Retreats},
		{1901, Fall, Talk},
		{1901, Fall, Movement},
		{1901, Fall, Retreats},
		{1901, Winter, Adjustments},
	}
	for i := 0; i < len(ordered)-1; i++ {
		if Compare(ordered[i], ordered[i+1]) != -1 {
			t.Errorf("expected %+v < %+v", ordered[i], ordered[i+1])
		}
	}
}

func TestStartRespectsNoTalk(t *testing.T) {
	if p := Start(1901, false); p.Type != Talk {
		t.Errorf("expected talk-enabled start to begin at TALK, got %+v", p)
	}
	if p := Start(1901, true); p.Type != Movement {
		t.Errorf("expected NO_TALK start to begin at MOVEMENT, got %+v", p)
	}
}

func TestSkipPolicy(t *testing.T) {
	if !SkipsTalk(NewRules(RuleNoTalk)) {
		t.Error("expected NO_TALK to skip talk phases")
	}
	if SkipsTalk(NewRules()) {
		t.Error("expected empty rules not to skip talk")
	}
	if !AutoSkipsEmptyPhases(NewRules()) {
		t.Error("expected empty rules to auto-skip empty phases by default")
	}
	if AutoSkipsEmptyPhases(NewRules(RuleDontSkipPhases)) {
		t.Error("expected DONT_SKIP_PHASES to disable auto-skip")
	}
}
