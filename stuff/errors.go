package stuff

import "fmt"

type (
	NotFound struct {
		ID int64
	}

	EmptyBody struct{}

	ReadOnly struct{}
)

func (n NotFound) Error() string {
	return fmt.Sprintf("stuff %v not found", n.ID)
}

func (EmptyBody) Error() string {
	return "cannot add stuff without content"
}

func (ReadOnly) Error() string {
	return "store was opened as read-only"
}
