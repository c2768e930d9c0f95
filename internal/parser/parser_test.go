package parser

import (
	"errors"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestTags_CleansAndDeduplicates(t *testing.T) {
	got, err := Tags("go, Go!,go,  ipfs ,,x-y")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := []string{"go", "Go", "ipfs", "xy"}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("tags mismatch (-want +got):\n%s", diff)
	}
}

func TestTags_Empty(t *testing.T) {
	got, err := Tags("")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got == nil || len(got) != 0 {
		t.Errorf("tags = %#v, want empty non-nil slice", got)
	}
}

func TestTags_TooMany(t *testing.T) {
	_, err := Tags(strings.Repeat("a,", 10) + "a")
	if !errors.Is(err, ErrTooManyTags) {
		t.Errorf("err = %v, want ErrTooManyTags", err)
	}
}

func TestTags_TooLong(t *testing.T) {
	_, err := Tags("ok," + strings.Repeat("x", MaxTagLen+1))
	if !errors.Is(err, ErrTagTooLong) {
		t.Errorf("err = %v, want ErrTagTooLong", err)
	}
}

func TestTags_LengthCountedAfterCleaning(t *testing.T) {
	// 20 letters plus punctuation is still a valid tag.
	raw := strings.Repeat("ab", 10) + "!!!"
	got, err := Tags(raw)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 1 || got[0] != strings.Repeat("ab", 10) {
		t.Errorf("tags = %v", got)
	}
}

func TestTag(t *testing.T) {
	cases := map[string]string{
		"music":                      "music",
		"rock&roll":                  "rockroll",
		"":                           "",
		"!!!":                        "",
		"abcdefghijklmnopqrstuvwxyz": "abcdefghijklmnopqrst",
	}
	for in, want := range cases {
		if got := Tag(in); got != want {
			t.Errorf("Tag(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestHashPattern(t *testing.T) {
	valid := "QmYwAPJzv5CZsnA625s3Xf2nemtYgPpHdWEz79ojWnPbdG"
	if !HashPattern.MatchString(valid) {
		t.Errorf("expected %q to match", valid)
	}
	for _, bad := range []string{
		"",
		"Qm",
		"QmYwAPJzv5CZsnA625s3Xf2nemtYgPpHdWEz79ojWnPbd0", // 0 is not base58
		"XmYwAPJzv5CZsnA625s3Xf2nemtYgPpHdWEz79ojWnPbdG",
	} {
		if HashPattern.MatchString(bad) {
			t.Errorf("expected %q not to match", bad)
		}
	}
}
