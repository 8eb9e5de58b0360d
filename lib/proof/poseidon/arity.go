package poseidondst

type Arity interface {
	Arity() int
}

type Arity2 struct{}
type Arity4 struct{}
type Arity8 struct{}

func (a Arity2) Arity() int { return 2 }
func (a Arity4) Arity() int { return 4 }
func (a Arity8) Arity() int { return 8 }
