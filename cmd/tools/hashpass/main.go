package main

import (
	"flag"
	"fmt"
	"log"
	"strings"

	"golang.org/x/crypto/bcrypt"
)

// hashpass 生成 bcrypt 哈希；带 -user 时输出一条可直接执行的 users 插入语句（手工建账号用）。
func main() {
	user := flag.String("user", "", "username for the generated INSERT statement")
	email := flag.String("email", "", "email for the generated INSERT statement")
	role := flag.String("role", "user", "role for the generated INSERT statement")
	cost := flag.Int("cost", bcrypt.DefaultCost, "bcrypt cost")
	flag.Parse()

	if flag.NArg() != 1 {
		log.Fatal("usage: hashpass [-user name -email addr -role user] <password>")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(flag.Arg(0)), *cost)
	if err != nil {
		log.Fatal(err)
	}
	if *user == "" {
		fmt.Println(string(hash))
		return
	}
	fmt.Printf("INSERT INTO users (username, email, password_hash, role) VALUES ('%s', '%s', '%s', '%s');\n",
		quote(*user), quote(*email), hash, quote(*role))
}

func quote(s string) string {
	return strings.ReplaceAll(s, "'", "''")
}
