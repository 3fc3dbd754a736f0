package weather

import (
	"bytes"
	"encoding/json"
)

// Report is the raw upstream payload as decoded from JSON. Nested objects are
// map[string]any and arrays are []any. It is treated as opaque apart from the
// paths listed in the field table.
type Report map[string]any

// Field is a public field name a caller may request.
type Field string

const (
	FieldName        Field = "name"
	FieldTemp        Field = "temp"
	FieldHumidity    Field = "humidity"
	FieldDescription Field = "description"
	FieldWindSpeed   Field = "windSpeed"
	FieldCountry     Field = "country"
	FieldIcon        Field = "icon"
	FieldWeatherCode Field = "weatherCode"
)

// fieldPaths is the closed name -> path table. Paths are compiled once here.
var fieldPaths = map[Field]Path{
	FieldName:        MustParsePath("name"),
	FieldTemp:        MustParsePath("main.temp"),
	FieldHumidity:    MustParsePath("main.humidity"),
	FieldDescription: MustParsePath("weather[0].description"),
	FieldWindSpeed:   MustParsePath("wind.speed"),
	FieldCountry:     MustParsePath("sys.country"),
	FieldIcon:        MustParsePath("weather[0].icon"),
	FieldWeatherCode: MustParsePath("weather[0].id"),
}

// ParseField reports whether name is a known field.
func ParseField(name string) (Field, bool) {
	f := Field(name)
	_, ok := fieldPaths[f]
	return f, ok
}

// PathOf returns the report path for a known field.
func PathOf(f Field) (Path, bool) {
	p, ok := fieldPaths[f]
	return p, ok
}

// Coordinates is a latitude/longitude pair in decimal degrees.
type Coordinates struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// LookupRequest is a single weather lookup as received from a caller.
type LookupRequest struct {
	City        string
	Coordinates *Coordinates
	Fields      []string
	Lang        string
}

// ProjectedResult maps requested field names to resolved values and keeps
// the order in which fields were first inserted.
type ProjectedResult struct {
	keys   []Field
	values map[Field]any
}

// Set inserts or overwrites the value for f. Overwriting keeps the first position.
func (r *ProjectedResult) Set(f Field, v any) {
	if r.values == nil {
		r.values = make(map[Field]any)
	}
	if _, ok := r.values[f]; !ok {
		r.keys = append(r.keys, f)
	}
	r.values[f] = v
}

// Get returns the value stored for f.
func (r ProjectedResult) Get(f Field) (any, bool) {
	v, ok := r.values[f]
	return v, ok
}

// Keys returns the fields in insertion order.
func (r ProjectedResult) Keys() []Field {
	out := make([]Field, len(r.keys))
	copy(out, r.keys)
	return out
}

func (r ProjectedResult) Len() int {
	return len(r.keys)
}

// MarshalJSON encodes the result as a JSON object in insertion order.
// An empty result encodes as {}.
func (r ProjectedResult) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, k := range r.keys {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(string(k))
		if err != nil {
			return nil, err
		}
		val, err := json.Marshal(r.values[k])
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		buf.Write(val)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}
