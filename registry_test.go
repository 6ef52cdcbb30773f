package mooring

import (
	"errors"
	"fmt"
	"reflect"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/Azhovan/mooring/document"
)

// TestDescribe_FieldOrderAndNames verifies declaration order, derived keys and tag overrides.
func TestDescribe_FieldOrderAndNames(t *testing.T) {
	td, err := Describe[serverConfig]()
	if err != nil {
		t.Fatalf("Describe failed: %v", err)
	}

	var keys []string
	for _, fd := range td.Fields {
		keys = append(keys, fd.Name)
	}
	if !reflect.DeepEqual(keys, serverKeys) {
		t.Errorf("keys = %v, want %v", keys, serverKeys)
	}

	if fd := td.Field("message-of-the-day"); fd == nil || fd.GoName != "Motd" {
		t.Errorf("name override not applied: %+v", fd)
	}
	if td.Field("ignored") != nil || td.Field("internal") != nil {
		t.Error("skipped and unexported fields must not be described")
	}
}

// TestDescribe_Kinds verifies classification of every supported value category.
func TestDescribe_Kinds(t *testing.T) {
	td, err := Describe[serverConfig]()
	if err != nil {
		t.Fatalf("Describe failed: %v", err)
	}

	want := map[string]Kind{
		"port":               KindScalar,
		"message-of-the-day": KindScalar,
		"level":              KindEnum,
		"mode":               KindEnum,
		"timeout":            KindCustom,
		"started":            KindCustom,
		"admins":             KindList,
		"ports":              KindMap,
		"database":           KindObject,
		"worlds":             KindList,
		"spawn":              KindObject,
		"id":                 KindCustom,
	}
	for key, kind := range want {
		if got := td.Field(key).Kind(); got != kind {
			t.Errorf("%s: kind = %s, want %s", key, got, kind)
		}
	}

	if td.Field("spawn").Object() == nil {
		t.Error("object field must expose its nested descriptor")
	}
}

// TestDescribe_Defaults verifies tag literals, nested defaults and comments.
func TestDescribe_Defaults(t *testing.T) {
	td, err := Describe[serverConfig]()
	if err != nil {
		t.Fatalf("Describe failed: %v", err)
	}

	cfg := td.New().Interface().(*serverConfig)
	if cfg.Port != 25565 {
		t.Errorf("Port = %d, want 25565", cfg.Port)
	}
	if cfg.Motd != "A Minecraft Server" {
		t.Errorf("Motd = %q", cfg.Motd)
	}
	if cfg.Level != "info" || cfg.Mode != modeCreative {
		t.Errorf("enum defaults = %q, %d", cfg.Level, cfg.Mode)
	}
	if cfg.Timeout != 30*time.Second {
		t.Errorf("Timeout = %v, want 30s", cfg.Timeout)
	}
	if cfg.Database.Host != "localhost" || cfg.Database.Port != 5432 {
		t.Errorf("nested defaults = %+v", cfg.Database)
	}
	if cfg.Spawn.Limits.MaxEntities != 200 || cfg.Spawn.Limits.Ratio != 0.75 {
		t.Errorf("third-level defaults = %+v", cfg.Spawn.Limits)
	}

	if got := td.Field("port").Comment; got != "Port to listen on" {
		t.Errorf("comment = %q", got)
	}
	if got := td.Field("port").DefaultNode(); got.Tag != document.TagInt || got.Value != "25565" {
		t.Errorf("default node = %s %q", got.Tag, got.Value)
	}
	if !td.Field("database").Object().Field("password").Secret {
		t.Error("password must be secret")
	}
}

// TestDescribe_NewReturnsIndependentCopies verifies defaults are never shared.
func TestDescribe_NewReturnsIndependentCopies(t *testing.T) {
	td, err := Describe[presetConfig]()
	if err != nil {
		t.Fatalf("Describe failed: %v", err)
	}

	a := td.New().Interface().(*presetConfig)
	a.Hosts[0] = "changed"
	a.Weights["a"] = 99

	b := td.New().Interface().(*presetConfig)
	if b.Hosts[0] != "one" || b.Weights["a"] != 1 {
		t.Errorf("defaults were mutated through an instance: %+v", b)
	}
	if got := td.Field("hosts").Default().([]string); got[0] != "one" {
		t.Errorf("Default() = %v", got)
	}
}

type presetConfig struct {
	Hosts   []string
	Weights map[string]float64
	Retries int `conf:"default:1"`
}

func (p *presetConfig) SetDefaults() {
	p.Hosts = []string{"one", "two"}
	p.Weights = map[string]float64{"a": 1, "b": 2}
	p.Retries = 3
}

// TestDescribe_Defaulter verifies SetDefaults runs after tag literals.
func TestDescribe_Defaulter(t *testing.T) {
	td, err := Describe[presetConfig]()
	if err != nil {
		t.Fatalf("Describe failed: %v", err)
	}
	cfg := td.New().Interface().(*presetConfig)
	if cfg.Retries != 3 {
		t.Errorf("Retries = %d, want 3 (SetDefaults overrides the tag)", cfg.Retries)
	}
	if len(cfg.Hosts) != 2 {
		t.Errorf("Hosts = %v", cfg.Hosts)
	}
}

type collectionDefaults struct {
	Tags   []string       `conf:"default:[pvp, hardcore],name:tags"`
	Limits map[string]int `conf:"default:{chunk: 16, world: 64}"`
	Motd   string         `conf:"default:\"Hello, world\""`
}

func TestDescribe_CollectionDefaults(t *testing.T) {
	td, err := NewRegistry().Describe(reflect.TypeOf(collectionDefaults{}))
	if err != nil {
		t.Fatalf("Describe failed: %v", err)
	}
	cfg := td.New().Interface().(*collectionDefaults)
	if !reflect.DeepEqual(cfg.Tags, []string{"pvp", "hardcore"}) {
		t.Errorf("Tags = %v", cfg.Tags)
	}
	if !reflect.DeepEqual(cfg.Limits, map[string]int{"chunk": 16, "world": 64}) {
		t.Errorf("Limits = %v", cfg.Limits)
	}
	if cfg.Motd != "Hello, world" {
		t.Errorf("Motd = %q", cfg.Motd)
	}
	if td.Fields[0].Name != "tags" {
		t.Errorf("directive after a bracketed default was lost: %q", td.Fields[0].Name)
	}
}

// TestDescribe_Cached verifies a type is described once.
func TestDescribe_Cached(t *testing.T) {
	r := NewRegistry()
	a, err := r.Describe(reflect.TypeOf(serverConfig{}))
	if err != nil {
		t.Fatalf("Describe failed: %v", err)
	}
	b, err := r.Describe(reflect.TypeOf(&serverConfig{}))
	if err != nil {
		t.Fatalf("Describe failed: %v", err)
	}
	if a != b {
		t.Error("expected the cached descriptor for the pointer type")
	}
}

type treeNode struct {
	Name     string
	Children []treeNode
}

type withAny struct {
	Port  int
	Extra any
}

type withLooseMap struct {
	Extra map[string]any
}

type withIntKeys struct {
	Extra map[int]string
}

type withPointer struct {
	Port *int
}

type withChan struct {
	Events chan string
}

// TestDescribe_Unsupported verifies registration fails fast for unmappable types.
func TestDescribe_Unsupported(t *testing.T) {
	tests := []struct {
		name  string
		typ   reflect.Type
		field string
	}{
		{name: "interface field", typ: reflect.TypeOf(withAny{}), field: "Extra"},
		{name: "heterogeneous map", typ: reflect.TypeOf(withLooseMap{}), field: "Extra[]"},
		{name: "non-string map keys", typ: reflect.TypeOf(withIntKeys{}), field: "Extra"},
		{name: "pointer field", typ: reflect.TypeOf(withPointer{}), field: "Port"},
		{name: "channel field", typ: reflect.TypeOf(withChan{}), field: "Events"},
		{name: "self reference through a list", typ: reflect.TypeOf(treeNode{}), field: "Children[]"},
		{name: "not a struct", typ: reflect.TypeOf(42), field: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewRegistry().Describe(tt.typ)
			var unsupported *UnsupportedTypeError
			if !errors.As(err, &unsupported) {
				t.Fatalf("expected UnsupportedTypeError, got %v", err)
			}
			if unsupported.Field != tt.field {
				t.Errorf("Field = %q, want %q", unsupported.Field, tt.field)
			}
		})
	}
}

type badDefault struct {
	Port int `conf:"default:abc"`
}

type badEnumDefault struct {
	Level logLevel `conf:"default:verbose"`
}

type badEnumZero struct {
	Level logLevel
}

type badEnumValue struct {
	Mode gameMode
}

func (b *badEnumValue) SetDefaults() { b.Mode = 9 }

// TestDescribe_MissingDefault verifies unusable defaults fail registration.
func TestDescribe_MissingDefault(t *testing.T) {
	for _, typ := range []reflect.Type{
		reflect.TypeOf(badDefault{}),
		reflect.TypeOf(badEnumDefault{}),
		reflect.TypeOf(badEnumZero{}),
		reflect.TypeOf(badEnumValue{}),
	} {
		t.Run(typ.Name(), func(t *testing.T) {
			_, err := NewRegistry().Describe(typ)
			var missing *MissingDefaultError
			if !errors.As(err, &missing) {
				t.Fatalf("expected MissingDefaultError, got %v", err)
			}
		})
	}
}

type duplicateKeys struct {
	Port  int
	Other int `conf:"name:port"`
}

type badBounds struct {
	Name bool `conf:"min:1"`
}

// TestDescribe_InvalidDeclarations verifies tag mistakes are reported at registration.
func TestDescribe_InvalidDeclarations(t *testing.T) {
	for _, typ := range []reflect.Type{reflect.TypeOf(duplicateKeys{}), reflect.TypeOf(badBounds{})} {
		_, err := NewRegistry().Describe(typ)
		var unsupported *UnsupportedTypeError
		if !errors.As(err, &unsupported) {
			t.Errorf("%s: expected UnsupportedTypeError, got %v", typ.Name(), err)
		}
	}
}

type point struct {
	X, Y int
}

type withPoint struct {
	Origin point `conf:"default:1;2"`
	Path   []point
}

func decodePoint(n *document.Node) (point, error) {
	x, y, ok := strings.Cut(n.Value, ";")
	if !ok {
		return point{}, fmt.Errorf("expected x;y, got %q", n.Value)
	}
	px, err := strconv.Atoi(x)
	if err != nil {
		return point{}, err
	}
	py, err := strconv.Atoi(y)
	if err != nil {
		return point{}, err
	}
	return point{X: px, Y: py}, nil
}

func encodePoint(p point) (*document.Node, error) {
	return document.String(fmt.Sprintf("%d;%d", p.X, p.Y)), nil
}

// TestRegisterCodec verifies a registered codec replaces structural binding.
func TestRegisterCodec(t *testing.T) {
	r := NewRegistry()
	if err := RegisterCodec(r, decodePoint, encodePoint); err != nil {
		t.Fatalf("RegisterCodec failed: %v", err)
	}

	td, err := r.Describe(reflect.TypeOf(withPoint{}))
	if err != nil {
		t.Fatalf("Describe failed: %v", err)
	}
	if td.Field("origin").Kind() != KindCustom {
		t.Errorf("origin kind = %s, want custom", td.Field("origin").Kind())
	}

	cfg := td.New().Interface().(*withPoint)
	if cfg.Origin != (point{X: 1, Y: 2}) {
		t.Errorf("Origin = %+v", cfg.Origin)
	}
}

// TestRegisterCodec_Frozen verifies late registration is rejected.
func TestRegisterCodec_Frozen(t *testing.T) {
	r := NewRegistry()
	if _, err := r.Describe(reflect.TypeOf(struct{ P point }{})); err != nil {
		t.Fatalf("Describe failed: %v", err)
	}

	err := RegisterCodec(r, decodePoint, encodePoint)
	if !errors.Is(err, ErrRegistryFrozen) {
		t.Errorf("expected ErrRegistryFrozen, got %v", err)
	}
}

// TestRegisterCodec_InterfaceType verifies a codec makes interface fields bindable.
func TestRegisterCodec_InterfaceType(t *testing.T) {
	r := NewRegistry()
	err := RegisterCodec(r,
		func(n *document.Node) (fmt.Stringer, error) {
			d, err := time.ParseDuration(n.Value)
			return d, err
		},
		func(s fmt.Stringer) (*document.Node, error) {
			if s == nil {
				return document.Null(), nil
			}
			return document.String(s.String()), nil
		},
	)
	if err != nil {
		t.Fatalf("RegisterCodec failed: %v", err)
	}

	type withStringer struct {
		Label fmt.Stringer
	}
	if _, err := r.Describe(reflect.TypeOf(withStringer{})); err != nil {
		t.Errorf("Describe failed: %v", err)
	}
}
