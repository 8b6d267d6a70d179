package auth

import (
	"context"
	"strings"

	"github.com/angelmondragon/bookstore-backend/pkg/enums"
	"github.com/angelmondragon/bookstore-backend/pkg/logger"
)

type roleSetter interface {
	SetRole(ctx context.Context, email string, role enums.UserRole) (bool, error)
}

// BootstrapAdmin promotes the configured account to admin. A blank email or a
// missing user is a no-op.
func BootstrapAdmin(ctx context.Context, repo roleSetter, email string, logg *logger.Logger) error {
	email = strings.TrimSpace(email)
	if email == "" {
		return nil
	}
	ok, err := repo.SetRole(ctx, email, enums.UserRoleAdmin)
	if err != nil {
		return err
	}
	if logg != nil {
		ctx = logg.WithField(ctx, "email", email)
		if ok {
			logg.Info(ctx, "admin bootstrap applied")
		} else {
			logg.Warn(ctx, "admin bootstrap skipped: user not found")
		}
	}
	return nil
}
