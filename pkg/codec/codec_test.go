package codec

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestDecode_Basic(t *testing.T) {
	data := []byte(`
items:
  sword_01:
    name: "Iron Sword"
    stats:
      damage: 10
  shield_01:
    name: "Oak Shield"
monsters:
  goblin:
    hp: 30
`)

	doc, err := Decode(data, "test.yml")
	if err != nil {
		t.Fatalf("Decode() failed: %v", err)
	}

	if got := doc.Keys(); len(got) != 2 || got[0] != "items" || got[1] != "monsters" {
		t.Fatalf("Keys() = %v, want [items monsters]", got)
	}

	items := doc.Section("items")
	if items == nil || !items.Keyed {
		t.Fatal("items section missing or not keyed")
	}
	if len(items.Records) != 2 {
		t.Fatalf("len(items.Records) = %d, want 2", len(items.Records))
	}
	if items.Records[0].ID != "sword_01" || items.Records[1].ID != "shield_01" {
		t.Errorf("record order = %q, %q", items.Records[0].ID, items.Records[1].ID)
	}

	sword := items.Record("sword_01")
	if sword == nil || sword.Body == nil {
		t.Fatal("sword_01 missing or has no body")
	}
	if sword.Body["name"] != "Iron Sword" {
		t.Errorf("name = %#v, want Iron Sword", sword.Body["name"])
	}
	stats, ok := sword.Body["stats"].(map[string]any)
	if !ok || stats["damage"] != 10 {
		t.Errorf("stats = %#v, want nested map with damage 10", sword.Body["stats"])
	}
}

func TestRoundTrip_PreservesOrder(t *testing.T) {
	data := []byte(`
zebra:
  z2:
    rank: 2
  z1:
    rank: 1
alpha:
  a1:
    rank: 3
`)

	doc, err := Decode(data, "order.yml")
	if err != nil {
		t.Fatalf("Decode() failed: %v", err)
	}

	out, err := doc.Encode()
	if err != nil {
		t.Fatalf("Encode() failed: %v", err)
	}

	text := string(out)
	zebraAt := strings.Index(text, "zebra:")
	alphaAt := strings.Index(text, "alpha:")
	if zebraAt < 0 || alphaAt < 0 || zebraAt > alphaAt {
		t.Errorf("section order lost:\n%s", text)
	}
	z2At := strings.Index(text, "z2:")
	z1At := strings.Index(text, "z1:")
	if z2At < 0 || z1At < 0 || z2At > z1At {
		t.Errorf("record order lost:\n%s", text)
	}

	// Re-decoding gives the same shape back.
	again, err := Decode(out, "order.yml")
	if err != nil {
		t.Fatalf("re-Decode() failed: %v", err)
	}
	if got := again.Keys(); got[0] != "zebra" || got[1] != "alpha" {
		t.Errorf("re-decoded Keys() = %v", got)
	}
	if again.Section("zebra").Records[0].ID != "z2" {
		t.Error("re-decoded record order lost")
	}
}

func TestRoundTrip_Deterministic(t *testing.T) {
	data := []byte(`
items:
  one:
    banana: 1
    apple: 2
    cherry: {z: 1, a: 2}
`)

	doc, err := Decode(data, "det.yml")
	if err != nil {
		t.Fatalf("Decode() failed: %v", err)
	}
	first, err := doc.Encode()
	if err != nil {
		t.Fatalf("Encode() failed: %v", err)
	}
	second, err := doc.Encode()
	if err != nil {
		t.Fatalf("second Encode() failed: %v", err)
	}
	if !bytes.Equal(first, second) {
		t.Errorf("Encode() is not deterministic:\n%s\nvs\n%s", first, second)
	}
}

func TestMutationIsVisibleOnEncode(t *testing.T) {
	data := []byte(`
items:
  sword_01:
    damage: 10
`)

	doc, err := Decode(data, "mut.yml")
	if err != nil {
		t.Fatalf("Decode() failed: %v", err)
	}

	body := doc.Section("items").Record("sword_01").Body
	body["damage"] = 15
	delete(body, "missing")
	body["tier"] = "rare"

	out, err := doc.Encode()
	if err != nil {
		t.Fatalf("Encode() failed: %v", err)
	}
	again, err := Decode(out, "mut.yml")
	if err != nil {
		t.Fatalf("re-Decode() failed: %v", err)
	}
	got := again.Section("items").Record("sword_01").Body
	if got["damage"] != 15 || got["tier"] != "rare" {
		t.Errorf("mutations lost: %#v", got)
	}
}

func TestRawSectionsPassThrough(t *testing.T) {
	data := []byte(`
version: 3
tags:
  - melee
  - ranged
items:
  sword_01:
    damage: 10
`)

	doc, err := Decode(data, "raw.yml")
	if err != nil {
		t.Fatalf("Decode() failed: %v", err)
	}

	version := doc.Section("version")
	if version == nil || version.Keyed || version.Raw != 3 {
		t.Errorf("version = %+v, want raw scalar 3", version)
	}
	tags := doc.Section("tags")
	if tags == nil || tags.Keyed {
		t.Fatal("tags should be a raw section")
	}
	if list, ok := tags.Raw.([]any); !ok || len(list) != 2 {
		t.Errorf("tags.Raw = %#v, want two-element list", tags.Raw)
	}

	out, err := doc.Encode()
	if err != nil {
		t.Fatalf("Encode() failed: %v", err)
	}
	text := string(out)
	if !strings.Contains(text, "version: 3") {
		t.Errorf("raw scalar lost:\n%s", text)
	}
	if !strings.Contains(text, "- melee") {
		t.Errorf("raw list lost:\n%s", text)
	}
}

func TestNonMappingRecordBody(t *testing.T) {
	data := []byte(`
items:
  broken: 42
  fine:
    damage: 1
`)

	doc, err := Decode(data, "broken.yml")
	if err != nil {
		t.Fatalf("Decode() failed: %v", err)
	}

	broken := doc.Section("items").Record("broken")
	if broken.Body != nil || broken.Raw != 42 {
		t.Errorf("broken record = %+v, want raw 42", broken)
	}

	out, err := doc.Encode()
	if err != nil {
		t.Fatalf("Encode() failed: %v", err)
	}
	if !strings.Contains(string(out), "broken: 42") {
		t.Errorf("raw record lost:\n%s", out)
	}
}

func TestNumericRecordIDs(t *testing.T) {
	data := []byte(`
items:
  1001:
    damage: 10
`)

	doc, err := Decode(data, "num.yml")
	if err != nil {
		t.Fatalf("Decode() failed: %v", err)
	}
	rec := doc.Section("items").Records[0]
	if rec.ID != "1001" {
		t.Errorf("ID = %q, want 1001", rec.ID)
	}

	out, err := doc.Encode()
	if err != nil {
		t.Fatalf("Encode() failed: %v", err)
	}
	// The id stays an unquoted integer key.
	if !strings.Contains(string(out), "1001:") || strings.Contains(string(out), `"1001"`) {
		t.Errorf("numeric id mangled:\n%s", out)
	}
}

func TestDecode_Empty(t *testing.T) {
	for _, data := range []string{"", "   \n", "# only a comment\n", "null\n", "---\n"} {
		doc, err := Decode([]byte(data), "empty.yml")
		if err != nil {
			t.Fatalf("Decode(%q) failed: %v", data, err)
		}
		if !doc.Empty() {
			t.Errorf("Decode(%q).Empty() = false", data)
		}
	}
}

func TestDecode_RootNotMapping(t *testing.T) {
	for _, data := range []string{"- a\n- b\n", "just a string\n"} {
		_, err := Decode([]byte(data), "bad.yml")
		if err == nil {
			t.Errorf("Decode(%q) should fail", data)
		}
	}
}

func TestDecode_BadYAML(t *testing.T) {
	_, err := Decode([]byte("items: [unclosed\n"), "bad.yml")
	if err == nil {
		t.Fatal("Decode() should fail on bad YAML")
	}
	if !strings.Contains(err.Error(), "bad.yml") {
		t.Errorf("error should name the file: %v", err)
	}
}

func TestDecodeFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "items.yml")
	if err := os.WriteFile(path, []byte("items:\n  a:\n    x: 1\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	doc, err := DecodeFile(path)
	if err != nil {
		t.Fatalf("DecodeFile() failed: %v", err)
	}
	if doc.Path != path {
		t.Errorf("Path = %q, want %q", doc.Path, path)
	}

	if _, err := DecodeFile(filepath.Join(dir, "missing.yml")); err == nil {
		t.Error("DecodeFile() should fail on a missing file")
	}
}

func TestAnchorsExpand(t *testing.T) {
	data := []byte(`
items:
  base: &base
    damage: 5
  copy:
    <<: *base
    name: "copy"
`)

	doc, err := Decode(data, "anchors.yml")
	if err != nil {
		t.Fatalf("Decode() failed: %v", err)
	}
	cp := doc.Section("items").Record("copy")
	if cp.Body["damage"] != 5 || cp.Body["name"] != "copy" {
		t.Errorf("merge key not expanded: %#v", cp.Body)
	}
}
