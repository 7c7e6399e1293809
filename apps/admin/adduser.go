package main

import (
	"context"
	"time"

	"github.com/jhsobrinho/educareapp-sub009/core"
	"github.com/jhsobrinho/educareapp-sub009/core/user"
)

var cliRoles = map[string]string{
	"caregiver":    user.RoleCaregiver,
	"professional": user.RoleProfessional,
	"admin":        user.RoleAdmin,
	"owner":        user.RoleAdminOwner,
}

// addUser updates or creates a user.User
func (cli *commandLine) addUser(name, uname, email, pwd, role string) error {
	var usr user.User
	var err error
	ctx := context.Background()
	uname = core.CleanString(uname, true /* lower */)
	email = core.CleanString(email, true /* lower */)

	if usr, err = cli.usrRepo.GetUser(ctx, user.GetFilter{UsernameOrEmail: []string{uname, email}}); err != nil {
		if !core.IsNotFound(err) {
			return err
		}
		now := time.Now().UTC()
		usr = user.User{
			Username:  uname,
			Email:     email,
			CreatedAt: now,
		}
	}
	if name = core.CleanString(name); name != "" {
		usr.Name = name
	}
	if usr.Name == "" {
		usr.Name = usr.Username
	}
	usr.Roles = []string{role}
	usr.UpdatedAt = time.Now().UTC()
	usr.SetActive(true)
	if err = usr.SetPassword(pwd); err != nil {
		return err
	}
	_, err = cli.usrRepo.UpdateOrCreateUser(ctx, usr)
	return err
}
