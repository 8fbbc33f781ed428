package model

import "github.com/architeacher/specifications/pkg/specification"

// UserHasGender holds for users sharing at least one flag with the mask.
type UserHasGender struct {
	*specification.Spec[User]
	mask Gender
}

func NewUserHasGender(mask Gender) *UserHasGender {
	return &UserHasGender{
		Spec: specification.New("userHasGender", UserSchema, specification.Lambda("user", func(user *specification.Param) specification.Expr {
			return specification.NotEq(
				specification.BitAnd(specification.Const(mask), user.Field(FieldGender)),
				specification.Const(0),
			)
		})),
		mask: mask,
	}
}

func (s *UserHasGender) Mask() Gender { return s.mask }
