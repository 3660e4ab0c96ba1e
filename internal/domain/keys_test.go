package domain

import "testing"

func TestCacheKeyString(t *testing.T) {
	key := NewCacheKey("t1", ResourceProduct, "p42", "")
	if got := key.String(); got != "{t1}:product:p42" {
		t.Fatalf("unexpected key: %s", got)
	}

	paged := NewCacheKey("t1", ResourceProductList, "list", "page2")
	if got := paged.String(); got != "{t1}:products:list:page2" {
		t.Fatalf("unexpected paged key: %s", got)
	}
}

func TestCacheKeyDeterministic(t *testing.T) {
	a := NewCacheKey(" t1 ", ResourceOrder, " o9 ", "").String()
	b := NewCacheKey("t1", ResourceOrder, "o9", "").String()
	if a != b {
		t.Fatalf("expected identical keys, got %q and %q", a, b)
	}
}

func TestTenantPattern(t *testing.T) {
	if got := TenantPattern("t1", ResourceSearch); got != "{t1}:search:*" {
		t.Fatalf("unexpected pattern: %s", got)
	}
}

func TestMatchKeyPattern(t *testing.T) {
	cases := []struct {
		pattern string
		key     string
		want    bool
	}{
		{"{t1}:products:*", "{t1}:products:list:page1", true},
		{"{t1}:products:*", "{t1}:products:list:page2", true},
		{"{t1}:products:*", "{t1}:product:p1", false},
		{"{t1}:products:*", "{t2}:products:list:page1", false},
		{"{t1}:product:p1", "{t1}:product:p1", true},
		{"{t1}:product:p1", "{t1}:product:p10", false},
		{"{global}:aggregate:*", "{global}:aggregate:top-sellers", true},
		{"", "", true},
		{"", "{t1}:product:p1", false},
	}
	for _, tc := range cases {
		if got := MatchKeyPattern(tc.pattern, tc.key); got != tc.want {
			t.Fatalf("MatchKeyPattern(%q, %q) = %v, want %v", tc.pattern, tc.key, got, tc.want)
		}
	}
}

func TestParseTopic(t *testing.T) {
	if _, err := ParseTopic("tenant-dashboard"); err != nil {
		t.Fatalf("tenant-dashboard should parse: %v", err)
	}
	topic, err := ParseTopic("product:p1")
	if err != nil {
		t.Fatalf("product topic should parse: %v", err)
	}
	if topic.Permission() != "catalog:read" {
		t.Fatalf("unexpected permission: %s", topic.Permission())
	}
	if _, err := ParseTopic("order:"); err == nil {
		t.Fatal("empty order id should be rejected")
	}
	if _, err := ParseTopic("everything"); err == nil {
		t.Fatal("unknown topic should be rejected")
	}
}

func TestInvalidationTargetsProduct(t *testing.T) {
	targets := InvalidationTargets("t1", ResourceProduct, "p1")
	if len(targets) != 4 {
		t.Fatalf("expected 4 targets, got %d", len(targets))
	}
	if targets[0].Key != "{t1}:product:p1" {
		t.Fatalf("unexpected exact target: %s", targets[0].Key)
	}
	wantPatterns := map[string]bool{
		"{t1}:products:*":      false,
		"{t1}:search:*":        false,
		"{global}:aggregate:*": false,
	}
	for _, target := range targets[1:] {
		if _, ok := wantPatterns[target.Pattern]; !ok {
			t.Fatalf("unexpected pattern target: %s", target.Pattern)
		}
		wantPatterns[target.Pattern] = true
	}
	for pattern, seen := range wantPatterns {
		if !seen {
			t.Fatalf("missing pattern target: %s", pattern)
		}
	}
}

func TestInvalidationTargetsUnknownResource(t *testing.T) {
	if targets := InvalidationTargets("t1", ResourceSearch, "x"); targets != nil {
		t.Fatalf("expected no targets for search writes, got %v", targets)
	}
}
