package utils

import (
	"encoding/base64"
	"encoding/binary"
	"fmt"
	"math/rand"
	"strings"
	"time"

	"github.com/dgrijalva/jwt-go"
)

const AlphaNum = "0123456789abcdefghijklmnopqrstuvwxyz"

func GenerateID() string {
	idLength := 12
	stringBuilder := strings.Builder{}
	for i := 0; i < idLength; i++ {
		index := rand.Intn(36)
		stringBuilder.WriteRune(rune(AlphaNum[index]))
	}
	return stringBuilder.String()
}

var pid = uint32(time.Now().UnixNano() % 4294967291)

// NewReqID 生成请求ID。
func NewReqID() string {
	var b [12]byte
	binary.LittleEndian.PutUint32(b[:], pid)
	binary.LittleEndian.PutUint64(b[4:], uint64(time.Now().UnixNano()))
	return base64.URLEncoding.EncodeToString(b[:])
}

// MaskPhone keeps the first three and the last two digits.
func MaskPhone(phone string) string {
	if len(phone) <= 5 {
		return phone
	}
	return phone[:3] + strings.Repeat("*", len(phone)-5) + phone[len(phone)-2:]
}

// JwtSign signs claims with HS256 and the given key.
func JwtSign(key string, claims map[string]interface{}) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims(claims))
	return token.SignedString([]byte(key))
}

// JwtDecode verifies the signature and the exp claim when present.
func JwtDecode(key string, token string) (map[string]interface{}, error) {
	claims := jwt.MapClaims{}
	_, err := jwt.ParseWithClaims(token, &claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return []byte(key), nil
	})
	if err != nil {
		return nil, err
	}
	return claims, nil
}
