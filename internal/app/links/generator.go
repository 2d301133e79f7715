package links

import (
	"crypto/rand"
	"encoding/binary"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/sqids/sqids-go"
)

// DefaultCodeLength 是随机短码的默认长度。
const DefaultCodeLength = 6

// Generator 生成候选短码。
//
// 只保证高熵，不保证唯一：唯一性由 Service（预检查 + 存储层唯一约束）负责。
type Generator interface {
	Generate() string
}

// UUIDGenerator 截取随机 UUIDv4 的前 Length 个十六进制字符。
type UUIDGenerator struct {
	Length int
}

func NewUUIDGenerator(length int) *UUIDGenerator {
	if length <= 0 || length > 32 {
		length = DefaultCodeLength
	}
	return &UUIDGenerator{Length: length}
}

func (g *UUIDGenerator) Generate() string {
	hex := strings.ReplaceAll(uuid.NewString(), "-", "")
	return hex[:g.Length]
}

// SqidsGenerator 用 sqids 编码一个 crypto/rand 随机数，再截断到固定长度。
// 字母表打乱过，输出不会暴露数字的大小顺序。
type SqidsGenerator struct {
	length int
	once   sync.Once
	sq     *sqids.Sqids
}

func NewSqidsGenerator(length int) *SqidsGenerator {
	if length <= 0 {
		length = DefaultCodeLength
	}
	return &SqidsGenerator{length: length}
}

func (g *SqidsGenerator) encoder() *sqids.Sqids {
	g.once.Do(func() {
		var err error
		g.sq, err = sqids.New(sqids.Options{
			Alphabet:  "k3G7QAe51FCsiWrNOYBUwM6XzZvdLT4j9JhyHKg2cVbxfERq0mSoI8lDpunPat",
			MinLength: uint8(min(g.length, 255)),
		})
		if err != nil {
			panic("sqids init failed: " + err.Error())
		}
	})
	return g.sq
}

func (g *SqidsGenerator) Generate() string {
	var buf [8]byte
	if _, err := rand.Read(buf[:]); err != nil {
		panic("crypto/rand failed: " + err.Error())
	}
	code, err := g.encoder().Encode([]uint64{binary.BigEndian.Uint64(buf[:])})
	if err != nil {
		// 只有命中 blocklist 且无法重排时才会出错，退回 UUID 方案
		return NewUUIDGenerator(g.length).Generate()
	}
	return code[:g.length]
}

// NewGenerator 按名称选择生成策略："sqids" 或默认的 "uuid"。
func NewGenerator(kind string, length int) Generator {
	switch strings.ToLower(strings.TrimSpace(kind)) {
	case "sqids":
		return NewSqidsGenerator(length)
	default:
		return NewUUIDGenerator(length)
	}
}
