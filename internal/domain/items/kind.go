package items

// Kind is the discriminator stored in contents.item_type.
type Kind string

const (
	KindText  Kind = "text"
	KindVideo Kind = "video"
	KindImage Kind = "image"
	KindFile  Kind = "file"
)

// Schema describes one registered content type.
type Schema struct {
	Kind  Kind
	Table string
	// Uploads is true for types whose payload lives in the blob store.
	Uploads bool
}

var registry = map[string]Schema{
	string(KindText):  {Kind: KindText, Table: "texts"},
	string(KindVideo): {Kind: KindVideo, Table: "videos"},
	string(KindImage): {Kind: KindImage, Table: "images", Uploads: true},
	string(KindFile):  {Kind: KindFile, Table: "files", Uploads: true},
}

// Lookup resolves a user-supplied type name. Anything outside the four
// registered names reports ok=false; it never panics or errors.
func Lookup(name string) (Schema, bool) {
	s, ok := registry[name]
	return s, ok
}

// Kinds lists the registered kinds in display order.
func Kinds() []Kind {
	return []Kind{KindText, KindVideo, KindImage, KindFile}
}

func (k Kind) Valid() bool {
	_, ok := registry[string(k)]
	return ok
}

// New returns an empty item of the schema's type.
func (s Schema) New() Item {
	return newItem(s.Kind)
}

func newItem(kind Kind) Item {
	switch kind {
	case KindText:
		return &Text{}
	case KindVideo:
		return &Video{}
	case KindImage:
		return &Image{}
	case KindFile:
		return &File{}
	}
	return nil
}
