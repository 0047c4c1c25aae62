package controller

import "context"

type ctxKey string

const userIdKey ctxKey = "user_id"

func (c controller) setUserIdToCtx(ctx context.Context, userId string) context.Context {
	return context.WithValue(ctx, userIdKey, userId)
}

func (c controller) getUserIdFromCtx(ctx context.Context) string {
	userId, _ := ctx.Value(userIdKey).(string)
	return userId
}
