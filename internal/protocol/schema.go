package protocol

// FieldKind tells the codec how to read one schema field.
type FieldKind uint8

const (
	// FieldFixed is exactly Width bytes.
	FieldFixed FieldKind = iota + 1
	// FieldLengthPrefixed is a Width-byte unsigned length followed by that
	// many bytes. It decodes to two options.
	FieldLengthPrefixed
	// FieldRest takes every remaining byte, possibly none.
	FieldRest
)

// Field is one entry of an opcode schema.
type Field struct {
	Name  string
	Kind  FieldKind
	Width int
}

func fixed(name string, n int) Field          { return Field{Name: name, Kind: FieldFixed, Width: n} }
func lengthPrefixed(name string, w int) Field { return Field{Name: name, Kind: FieldLengthPrefixed, Width: w} }
func rest(name string) Field                  { return Field{Name: name, Kind: FieldRest} }

var schemas = map[Code][]Field{
	CodeHey:           {fixed("version", 2)},
	CodeAck:           {rest("trailing")},
	CodeSendKey:       {lengthPrefixed("key", 2)},
	CodeKeyResponse:   {lengthPrefixed("key", 2)},
	CodeKnockSend:     {lengthPrefixed("key_id", 1)},
	CodeKnockReceive:  {lengthPrefixed("key_id", 1)},
	CodeRoomClose:     {lengthPrefixed("room_id", 1)},
	CodeKeyRequest:    {lengthPrefixed("key_id", 1)},
	CodeKeyUnknown:    {lengthPrefixed("key_id", 1)},
	CodeKnockResponse: {fixed("response", 1), lengthPrefixed("key_id", 1)},
	CodeRoomNew:       {lengthPrefixed("room_id", 1), lengthPrefixed("key_id", 1)},
	CodeMessageSend:   {lengthPrefixed("room_id", 1), fixed("encryption", 1), rest("payload")},
}

// Schema returns the field layout of c. Error-signalling opcodes have none.
func Schema(c Code) ([]Field, bool) {
	fields, ok := schemas[c]
	return fields, ok
}

// OptionCount is the number of options a packet with this schema carries.
func OptionCount(fields []Field) int {
	n := 0
	for _, f := range fields {
		if f.Kind == FieldLengthPrefixed {
			n += 2
		} else {
			n++
		}
	}
	return n
}
