package upstream

import (
	"context"
	"net/url"
	"time"
)

type User struct {
	Id        string `json:"id"`
	Username  string `json:"username"`
	AvatarURL string `json:"avatar_url"`
}

// ProfileClient resolves display identity snapshots from the user service.
type ProfileClient struct {
	client
}

func NewProfileClient(baseURL string, timeout time.Duration) *ProfileClient {
	return &ProfileClient{client: newClient(baseURL, timeout)}
}

func (c *ProfileClient) GetUser(ctx context.Context, userId string) (User, error) {
	var user User
	if err := c.getJSON(ctx, "/users/"+url.PathEscape(userId), &user); err != nil {
		return User{}, err
	}

	return user, nil
}
