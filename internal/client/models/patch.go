package models

// ContactPatch is a shallow partial update of a Contact. Nil fields are left
// untouched; set fields replace the current value wholesale (tags and image
// payloads included — there is no element-wise merge).
//
// ID and Color are deliberately absent: the id is immutable and the accent
// color is assigned once at creation.
type ContactPatch struct {
	Name        *string
	Company     *string
	Role        *string
	Phone       *string
	Fax         *string
	Email       *string
	Address     *string
	Website     *string
	Memo        *string
	Tags        *[]string
	IsFavorite  *bool
	Photo       *[]byte
	CardFront   *[]byte
	CardBack    *[]byte
	Orientation *Orientation
}

// Apply overlays the patch onto c.
func (p ContactPatch) Apply(c *Contact) {
	if p.Name != nil {
		c.Name = *p.Name
	}
	if p.Company != nil {
		c.Company = *p.Company
	}
	if p.Role != nil {
		c.Role = *p.Role
	}
	if p.Phone != nil {
		c.Phone = *p.Phone
	}
	if p.Fax != nil {
		c.Fax = *p.Fax
	}
	if p.Email != nil {
		c.Email = *p.Email
	}
	if p.Address != nil {
		c.Address = *p.Address
	}
	if p.Website != nil {
		c.Website = *p.Website
	}
	if p.Memo != nil {
		c.Memo = *p.Memo
	}
	if p.Tags != nil {
		c.Tags = *p.Tags
	}
	if p.IsFavorite != nil {
		c.IsFavorite = *p.IsFavorite
	}
	if p.Photo != nil {
		c.Photo = *p.Photo
	}
	if p.CardFront != nil {
		c.CardFront = *p.CardFront
	}
	if p.CardBack != nil {
		c.CardBack = *p.CardBack
	}
	if p.Orientation != nil {
		c.Orientation = *p.Orientation
	}
}

// Fields returns the set fields keyed by their wire names, for a remote
// partial update.
func (p ContactPatch) Fields() map[string]any {
	m := map[string]any{}
	if p.Name != nil {
		m["name"] = *p.Name
	}
	if p.Company != nil {
		m["company"] = *p.Company
	}
	if p.Role != nil {
		m["role"] = *p.Role
	}
	if p.Phone != nil {
		m["phone"] = *p.Phone
	}
	if p.Fax != nil {
		m["fax"] = *p.Fax
	}
	if p.Email != nil {
		m["email"] = *p.Email
	}
	if p.Address != nil {
		m["address"] = *p.Address
	}
	if p.Website != nil {
		m["website"] = *p.Website
	}
	if p.Memo != nil {
		m["memo"] = *p.Memo
	}
	if p.Tags != nil {
		m["tags"] = *p.Tags
	}
	if p.IsFavorite != nil {
		m["isFavorite"] = *p.IsFavorite
	}
	if p.Photo != nil {
		m["photo"] = *p.Photo
	}
	if p.CardFront != nil {
		m["cardFront"] = *p.CardFront
	}
	if p.CardBack != nil {
		m["cardBack"] = *p.CardBack
	}
	if p.Orientation != nil {
		m["orientation"] = string(*p.Orientation)
	}
	return m
}

// IsEmpty reports whether the patch sets no fields.
func (p ContactPatch) IsEmpty() bool {
	return len(p.Fields()) == 0
}

func ptr[T any](v T) *T { return &v }

// FavoritePatch builds a patch that only flips the favorite flag.
func FavoritePatch(fav bool) ContactPatch {
	return ContactPatch{IsFavorite: ptr(fav)}
}
