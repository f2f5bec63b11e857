package repository

import "fmt"

const (
	revokedTokenKey = "pinboard:revoked:%s" // <jti>
)

func RevokedTokenKey(jti string) string {
	return fmt.Sprintf(revokedTokenKey, jti)
}
