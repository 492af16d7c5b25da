package sigdb

// Signature is a named byte pattern identifying a known cryptographic constant.
// Pattern must not be modified once the signature belongs to a Database.
type Signature struct {
	Name    string
	Pattern []byte
}

// Database is a fully loaded, validated set of signatures in file order.
// It is only obtained through Decode or Source.Load, and it is never partially populated.
type Database struct {
	declaredCount int
	signatures    []Signature
}

func (db *Database) DeclaredCount() int {
	return db.declaredCount
}

func (db *Database) Len() int {
	return len(db.signatures)
}

func (db *Database) At(i int) Signature {
	return db.signatures[i]
}

// All iterates over the signatures in database order.
func (db *Database) All() func(yield func(int, Signature) bool) {
	return func(yield func(int, Signature) bool) {
		for i, sig := range db.signatures {
			if !yield(i, sig) {
				return
			}
		}
	}
}
