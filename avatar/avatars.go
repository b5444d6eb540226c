package avatar

import (
	"io"
	"stocktrack/account"
	"stocktrack/bizerror"
	"stocktrack/client/s3"
	"stocktrack/session"

	"github.com/fundwit/go-commons/types"
)

var (
	DetailAvatarFunc = DetailAvatar
	CreateAvatarFunc = CreateAvatar
)

func avatarKey(id types.ID) string {
	return "avatars/" + id.String() + ".png"
}

func DetailAvatar(id types.ID, s *session.Session) ([]byte, error) {
	r, err := s3.GetObjectFunc(s.Ctx(), avatarKey(id))
	if err != nil {
		if s3.IsNoSuchKey(err) {
			return nil, bizerror.ErrNotFound
		}
		return nil, err
	}
	defer r.Close()
	return io.ReadAll(r)
}

// CreateAvatar stores the image of the caller and points the profile at it.
func CreateAvatar(id types.ID, r io.Reader, s *session.Session) error {
	if id != s.Identity.ID {
		return bizerror.ErrForbidden
	}
	if err := s3.PutObjectFunc(s.Ctx(), avatarKey(id), r); err != nil {
		return err
	}
	return account.UpdateAvatarURLFunc(id, PathAccountAvatars+"/"+id.String(), s.Ctx())
}
