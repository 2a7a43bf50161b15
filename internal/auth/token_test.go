package auth

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("JWTTokenGenerator", func() {
	const secret = "0123456789abcdef0123456789abcdef"

	var (
		gen *JWTTokenGenerator
		now time.Time
	)

	BeforeEach(func() {
		now = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
		gen = NewJWTTokenGenerator(secret, "books", "books-api", 4*time.Hour)
		gen.TimeFunc = func() time.Time { return now }
	})

	It("issues a token carrying the full registered claim set", func() {
		tokenString, expiresAt, err := gen.GenerateAccessToken("user-1", "alice")
		Expect(err).NotTo(HaveOccurred())
		Expect(expiresAt).To(Equal(now.Add(4 * time.Hour)))

		claims, err := gen.ValidateToken(tokenString)
		Expect(err).NotTo(HaveOccurred())
		Expect(claims.Subject).To(Equal("user-1"))
		Expect(claims.Username).To(Equal("alice"))
		Expect(claims.Issuer).To(Equal("books"))
		Expect(claims.Audience).To(ContainElement("books-api"))
		Expect(claims.ID).NotTo(BeEmpty())
		Expect(claims.ExpiresAt.Time).To(Equal(now.Add(4 * time.Hour)))
		Expect(claims.IssuedAt.Time).To(Equal(now))
		Expect(claims.NotBefore.Time).To(Equal(now))
	})

	It("assigns a distinct jti to every token", func() {
		first, _, err := gen.GenerateAccessToken("user-1", "alice")
		Expect(err).NotTo(HaveOccurred())
		second, _, err := gen.GenerateAccessToken("user-1", "alice")
		Expect(err).NotTo(HaveOccurred())

		firstClaims, err := gen.ValidateToken(first)
		Expect(err).NotTo(HaveOccurred())
		secondClaims, err := gen.ValidateToken(second)
		Expect(err).NotTo(HaveOccurred())
		Expect(firstClaims.ID).NotTo(Equal(secondClaims.ID))
	})

	It("accepts a token right up to expiry and rejects it after", func() {
		tokenString, _, err := gen.GenerateAccessToken("user-1", "alice")
		Expect(err).NotTo(HaveOccurred())

		now = now.Add(4*time.Hour - time.Second)
		_, err = gen.ValidateToken(tokenString)
		Expect(err).NotTo(HaveOccurred())

		now = now.Add(2 * time.Second)
		_, err = gen.ValidateToken(tokenString)
		Expect(err).To(Equal(ErrTokenExpired))
	})

	It("rejects a token signed with a different secret", func() {
		other := NewJWTTokenGenerator("another-secret-another-secret-32", "books", "books-api", 4*time.Hour)
		other.TimeFunc = gen.TimeFunc

		tokenString, _, err := other.GenerateAccessToken("user-1", "alice")
		Expect(err).NotTo(HaveOccurred())

		_, err = gen.ValidateToken(tokenString)
		Expect(err).To(Equal(ErrInvalidToken))
	})

	It("rejects a token with the wrong issuer or audience", func() {
		otherIssuer := NewJWTTokenGenerator(secret, "someone-else", "books-api", 4*time.Hour)
		otherIssuer.TimeFunc = gen.TimeFunc
		tokenString, _, err := otherIssuer.GenerateAccessToken("user-1", "alice")
		Expect(err).NotTo(HaveOccurred())
		_, err = gen.ValidateToken(tokenString)
		Expect(err).To(Equal(ErrInvalidToken))

		otherAudience := NewJWTTokenGenerator(secret, "books", "someone-else", 4*time.Hour)
		otherAudience.TimeFunc = gen.TimeFunc
		tokenString, _, err = otherAudience.GenerateAccessToken("user-1", "alice")
		Expect(err).NotTo(HaveOccurred())
		_, err = gen.ValidateToken(tokenString)
		Expect(err).To(Equal(ErrInvalidToken))
	})

	It("rejects an unsigned token", func() {
		unsigned := jwt.NewWithClaims(jwt.SigningMethodNone, jwt.RegisteredClaims{
			Issuer:    "books",
			Subject:   "user-1",
			Audience:  jwt.ClaimStrings{"books-api"},
			ExpiresAt: jwt.NewNumericDate(now.Add(time.Hour)),
		})
		tokenString, err := unsigned.SignedString(jwt.UnsafeAllowNoneSignatureType)
		Expect(err).NotTo(HaveOccurred())

		_, err = gen.ValidateToken(tokenString)
		Expect(err).To(Equal(ErrInvalidToken))
	})

	It("rejects garbage input", func() {
		_, err := gen.ValidateToken("not-a-token")
		Expect(err).To(Equal(ErrInvalidToken))
	})
})
