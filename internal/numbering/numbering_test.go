package numbering

import (
	"errors"
	"testing"
)

func TestNextMonotonic(t *testing.T) {
	existing := []ProjectNumber{
		{Year: 25, Country: 971, Seq: 1},
		{Year: 25, Country: 971, Seq: 4},
	}
	got, err := Next(971, 25, existing)
	if err != nil {
		t.Fatalf("Next: %v", err)
	}
	want := ProjectNumber{Year: 25, Country: 971, Seq: 5}
	if got != want {
		t.Fatalf("Next = %+v, want %+v", got, want)
	}
	if got.String() != "25-97105" {
		t.Fatalf("String = %q, want 25-97105", got.String())
	}
}

func TestNextIsolatedPerCountryYear(t *testing.T) {
	existing := []ProjectNumber{
		{Year: 25, Country: 971, Seq: 1},
		{Year: 25, Country: 971, Seq: 4},
	}
	got, err := Next(966, 25, existing)
	if err != nil {
		t.Fatalf("Next: %v", err)
	}
	if got.Seq != 1 || got.String() != "25-96601" {
		t.Fatalf("Next(966, 25) = %+v (%s), want seq 1 (25-96601)", got, got)
	}

	got, err = Next(971, 26, existing)
	if err != nil {
		t.Fatalf("Next: %v", err)
	}
	if got.Seq != 1 {
		t.Fatalf("Next(971, 26) seq = %d, want 1", got.Seq)
	}
}

func TestNextEmptySnapshot(t *testing.T) {
	got, err := Next(971, 25, nil)
	if err != nil {
		t.Fatalf("Next: %v", err)
	}
	if got.Seq != 1 {
		t.Fatalf("seq = %d, want 1", got.Seq)
	}
}

func TestNextOverflow(t *testing.T) {
	existing := []ProjectNumber{{Year: 25, Country: 971, Seq: 99}}
	_, err := Next(971, 25, existing)
	if !errors.Is(err, ErrOverflow) {
		t.Fatalf("err = %v, want ErrOverflow", err)
	}
}

func TestValidateRejectsCollision(t *testing.T) {
	existing := []ProjectNumber{{Year: 25, Country: 971, Seq: 5}}
	if Validate(ProjectNumber{Year: 25, Country: 971, Seq: 5}, existing) {
		t.Fatal("Validate accepted a duplicate of 25-97105")
	}
	if !Validate(ProjectNumber{Year: 25, Country: 971, Seq: 6}, existing) {
		t.Fatal("Validate rejected a fresh number")
	}
	if !Validate(ProjectNumber{Year: 25, Country: 966, Seq: 5}, existing) {
		t.Fatal("Validate rejected a number from another country")
	}
}

func TestRoundTrip(t *testing.T) {
	numbers := []ProjectNumber{
		{Year: 25, Country: 971, Seq: 5},
		{Year: 22, Country: 966, Seq: 1},
		{Year: 26, Country: 1, Seq: 99},
		{Year: 20, Country: 44, Seq: 12},
	}
	for _, n := range numbers {
		parsed, err := Parse(n.String())
		if err != nil {
			t.Fatalf("Parse(%s): %v", n, err)
		}
		if parsed != n {
			t.Fatalf("Parse(Render(%+v)) = %+v", n, parsed)
		}
	}
}

func TestParseRejectsMalformed(t *testing.T) {
	bad := []string{
		"",
		"25",
		"25-971",
		"2597105",
		"25-9710",
		"25-971056",
		"xx-97105",
		"25-xxx05",
		"25-971xx",
		"25-97100", // zero sequence
		"25-97-05",
	}
	for _, s := range bad {
		if _, err := Parse(s); !errors.Is(err, ErrInvalidFormat) {
			t.Fatalf("Parse(%q) err = %v, want ErrInvalidFormat", s, err)
		}
	}
}
