package auth

import "context"

// Identity 是通过认证的调用方。
type Identity struct {
	UserID int64
	Role   string
}

type identityKey struct{}

func WithIdentity(ctx context.Context, id Identity) context.Context {
	return context.WithValue(ctx, identityKey{}, id)
}

func GetIdentity(ctx context.Context) (Identity, bool) {
	v := ctx.Value(identityKey{})
	id, ok := v.(Identity)
	return id, ok
}

// CallerID 返回调用方用户 ID，匿名请求返回 nil。
func CallerID(ctx context.Context) *int64 {
	id, ok := GetIdentity(ctx)
	if !ok {
		return nil
	}
	uid := id.UserID
	return &uid
}
