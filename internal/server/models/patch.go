package models

// AccountPatch is a sparse update over the editable account fields. Nil
// fields are left unchanged; id, status, codes and sessions are not
// addressable.
type AccountPatch struct {
	FirstName *string `json:"firstname,omitempty"`
	LastName  *string `json:"lastname,omitempty"`
	Email     *string `json:"email,omitempty"`
	Username  *string `json:"username,omitempty"`
	Password  *string `json:"password,omitempty"`
}

// Empty reports whether the patch touches no field.
func (p AccountPatch) Empty() bool {
	return p.FirstName == nil && p.LastName == nil && p.Email == nil && p.Username == nil && p.Password == nil
}
