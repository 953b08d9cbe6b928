package api

import (
	"context"
	"fmt"

	"github.com/antonkuzmin/adminctl/internal/client/models"
)

// Login exchanges credentials for a bearer token. The endpoint takes
// form-encoded fields, not JSON.
func (c *Client) Login(ctx context.Context, username, password string) (string, error) {
	var out struct {
		AccessToken string `json:"access_token"`
	}
	_, err := c.oauth.R().
		SetContext(ctx).
		SetFormData(map[string]string{
			"username": username,
			"password": password,
		}).
		SetResult(&out).
		Post("/owner/login")
	if err != nil {
		return "", err
	}
	return out.AccessToken, nil
}

// Profile fetches the current account record. The session gate uses this
// call to prove a stored token is still valid.
func (c *Client) Profile(ctx context.Context) (*models.Owner, error) {
	var out models.Owner
	_, err := c.oauth.R().SetContext(ctx).SetResult(&out).Get("/owner/profile")
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// UpdateOwner changes the account's username/password and returns the
// updated record.
func (c *Client) UpdateOwner(ctx context.Context, id int, username, password string) (*models.Owner, error) {
	var out models.Owner
	_, err := c.oauth.R().
		SetContext(ctx).
		SetBody(map[string]string{"username": username, "password": password}).
		SetResult(&out).
		Put(fmt.Sprintf("/owner/%d", id))
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// LinkAdminCompany adds the admin to the company and returns the admin
// record with its refreshed membership list.
func (c *Client) LinkAdminCompany(ctx context.Context, adminID, companyID int) (*models.Admin, error) {
	var out models.Admin
	_, err := c.oauth.R().
		SetContext(ctx).
		SetResult(&out).
		Post(fmt.Sprintf("/admins/%d/companies/%d", adminID, companyID))
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// UnlinkAdminCompany removes the admin from the company; same response
// shape as LinkAdminCompany.
func (c *Client) UnlinkAdminCompany(ctx context.Context, adminID, companyID int) (*models.Admin, error) {
	var out models.Admin
	_, err := c.oauth.R().
		SetContext(ctx).
		SetResult(&out).
		Delete(fmt.Sprintf("/admins/%d/companies/%d", adminID, companyID))
	if err != nil {
		return nil, err
	}
	return &out, nil
}
