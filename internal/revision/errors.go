package revision

import "errors"

var (
	ErrChangeNotFound  = errors.New("change not found")
	ErrChangeFinal     = errors.New("change is already accepted or rejected")
	ErrVersionNotFound = errors.New("version not found")
	ErrCommentNotFound = errors.New("comment not found")
	ErrEditInProgress  = errors.New("a section is already being edited")
	ErrNotEditing      = errors.New("no section is being edited")
)
