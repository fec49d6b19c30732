package stackitem

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/neo-project/neo-sub032/errors"
)

func TestConvert(t *testing.T) {
	cases := []struct {
		in      Item
		to      Type
		want    Item
		wantErr bool
	}{
		{Null{}, IntegerT, Null{}, false},
		{Null{}, AnyT, nil, true},
		{Make(5), BooleanT, True, false},
		{Make(0), BooleanT, False, false},
		{Make(256), ByteStringT, ByteString{0, 1}, false},
		{ByteString{0xff}, IntegerT, Make(-1), false},
		{True, IntegerT, Make(1), false},
		{ByteString("ab"), BooleanT, True, false},
		{ByteString(make([]byte, 33)), IntegerT, nil, true},
		{Make(1), MapT, nil, true},
		{NewPointer(nil, 0), IntegerT, nil, true},
		{Make(1), Type(0x99), nil, true},
	}
	for i, c := range cases {
		got, err := Convert(c.in, c.to, nil)
		if c.wantErr {
			if errors.Root(err) != ErrInvalidCast {
				t.Errorf("case %d: got err = %v want %v", i, err, ErrInvalidCast)
			}
			continue
		}
		if err != nil {
			t.Errorf("case %d: unexpected error %v", i, err)
			continue
		}
		eq, err := Equal(got, c.want)
		if err != nil || !eq {
			t.Errorf("case %d: Convert(%s, %s) = %s want %s", i, c.in, c.to, got, c.want)
		}
	}
}

func TestConvertBufferCopies(t *testing.T) {
	buf := NewBufferBytes([]byte{1, 2})
	got, err := Convert(buf, ByteStringT, nil)
	require.NoError(t, err)
	b, _ := buf.Bytes()
	b[0] = 9
	require.Equal(t, ByteString{1, 2}, got)

	same, err := Convert(buf, BufferT, nil)
	require.NoError(t, err)
	require.True(t, same == Item(buf))

	other, err := Convert(ByteString{3}, BufferT, nil)
	require.NoError(t, err)
	ob, _ := other.Bytes()
	require.True(t, bytes.Equal(ob, []byte{3}))
}

func TestConvertArrayStruct(t *testing.T) {
	rc := NewRefCounter(0)
	arr, err := NewArrayFrom(rc, []Item{Make(1), Make(2)})
	require.NoError(t, err)
	rc.AddStackRef(arr)

	s, err := Convert(arr, StructT, rc)
	require.NoError(t, err)
	require.Equal(t, StructT, s.Type())
	require.Equal(t, 2, s.(*Struct).Len())

	rc.AddStackRef(s)
	require.Equal(t, 6, rc.CheckZeroReferred())
}

func TestMapOrderAndKeys(t *testing.T) {
	rc := NewRefCounter(0)
	m := NewMap(rc)
	rc.AddStackRef(m)
	require.NoError(t, m.Set(ByteString{1}, Make(10)))
	require.NoError(t, m.Set(Make(1), Make(20)))
	require.NoError(t, m.Set(True, Make(30)))
	require.Equal(t, 3, m.Len())

	// same bytes, different key type
	v, ok, err := m.Get(Make(1))
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, "20", v.String())

	require.NoError(t, m.Set(ByteString{1}, Make(11)))
	require.Equal(t, []Item{ByteString{1}, Make(1), True}, m.Keys())

	require.NoError(t, m.Delete(Make(1)))
	require.Equal(t, []Item{ByteString{1}, True}, m.Keys())
	v, ok, err = m.Get(True)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, "30", v.String())
	require.Equal(t, 5, rc.CheckZeroReferred())

	_, _, err = m.Get(NewArray(nil))
	require.Equal(t, ErrInvalidKey, errors.Root(err))
	err = m.Set(ByteString(make([]byte, MaxKeySize+1)), Null{})
	require.Equal(t, ErrInvalidKey, errors.Root(err))

	m.Clear()
	require.Equal(t, 0, m.Len())
	require.Equal(t, 1, rc.CheckZeroReferred())
}

func TestToJSON(t *testing.T) {
	m := NewMap(nil)
	require.NoError(t, m.Set(ByteString("k"), Make(-7)))
	arr, err := NewArrayFrom(nil, []Item{Null{}, True, NewBufferBytes([]byte{1}), m})
	require.NoError(t, err)

	out, err := ToJSON(arr)
	require.NoError(t, err)

	var got interface{}
	require.NoError(t, json.Unmarshal(out, &got))
	want := map[string]interface{}{
		"type": "Array",
		"value": []interface{}{
			map[string]interface{}{"type": "Any"},
			map[string]interface{}{"type": "Boolean", "value": true},
			map[string]interface{}{"type": "Buffer", "value": "AQ=="},
			map[string]interface{}{"type": "Map", "value": []interface{}{
				map[string]interface{}{
					"key":   map[string]interface{}{"type": "ByteString", "value": "aw=="},
					"value": map[string]interface{}{"type": "Integer", "value": "-7"},
				},
			}},
		},
	}
	require.Equal(t, want, got)

	require.NoError(t, arr.Append(arr))
	_, err = ToJSON(arr)
	require.Equal(t, ErrCircularReference, errors.Root(err))
}
