package domain

// ResourceRecord is a typed, named, TTL-bearing entry of the answer,
// authority or additional section. Data holds the raw rdata whose layout
// depends on Type; it is forwarded byte for byte.
type ResourceRecord struct {
	Name  string
	Type  RRType
	Class RRClass
	TTL   uint32
	Data  []byte
}
