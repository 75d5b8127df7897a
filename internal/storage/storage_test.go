package storage

import "testing"

type sampleValue struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
}

func TestMemoryStore_ReadWriteRoundTrip(t *testing.T) {
	store := NewMemoryStore()

	store.Write("key1", sampleValue{Name: "fortune", Count: 3})

	var got sampleValue
	if !store.Read("key1", &got) {
		t.Fatal("書き込んだ値が読めない")
	}
	if got.Name != "fortune" || got.Count != 3 {
		t.Errorf("got = %+v", got)
	}
}

func TestMemoryStore_ReadMissingKey_ReturnsFalse(t *testing.T) {
	store := NewMemoryStore()

	var got sampleValue
	if store.Read("missing", &got) {
		t.Error("存在しないキーの読み取りはfalseを返すべき")
	}
}

func TestMemoryStore_CorruptedValue_TreatedAsAbsent(t *testing.T) {
	store := NewMemoryStore()
	store.SetRaw("broken", []byte("{not json"))

	var got sampleValue
	if store.Read("broken", &got) {
		t.Error("壊れた保存値は存在しない扱いにすべき")
	}
}

func TestMemoryStore_Delete(t *testing.T) {
	store := NewMemoryStore()
	store.Write("key1", sampleValue{Name: "x"})
	store.Delete("key1")

	var got sampleValue
	if store.Read("key1", &got) {
		t.Error("削除後のキーは読めないはず")
	}

	// 存在しないキーの削除は何も起きない
	store.Delete("never-existed")
}

func TestKeyNamespaces(t *testing.T) {
	if got := UserKey("local-dev1"); got != "fortunecrack:user:local-dev1" {
		t.Errorf("UserKey = %q", got)
	}
	if got := FortunesKey("local-dev1"); got != "fortunecrack:fortunes:local-dev1" {
		t.Errorf("FortunesKey = %q", got)
	}
}
