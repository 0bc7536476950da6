package app

import (
	"fmt"
	"strconv"
)

// Command はアプリケーションの起動モードを表す。
type Command string

const (
	// CommandServe はAPIサーバーモードで起動することを示す。
	CommandServe Command = "serve"
	// CommandWorker は期限切れトークン回収ワーカーとして起動することを示す。
	CommandWorker Command = "worker"
	// CommandMigrate はデータベースマイグレーションを操作することを示す。
	CommandMigrate Command = "migrate"
	// CommandHealthcheck はヘルスチェックを実行することを示す。
	// distroless環境でのDockerヘルスチェック用。
	CommandHealthcheck Command = "healthcheck"
)

// ParseCommand はコマンドライン引数からサブコマンドを解析する。
// 引数が空またはサポート外のコマンドの場合はCommandServeを返す。
func ParseCommand(args []string) Command {
	if len(args) == 0 {
		return CommandServe
	}

	switch Command(args[0]) {
	case CommandWorker, CommandServe, CommandMigrate, CommandHealthcheck:
		return Command(args[0])
	default:
		return CommandServe
	}
}

// MigrateDirection はmigrateサブコマンドの操作種別。
type MigrateDirection string

const (
	MigrateUp      MigrateDirection = "up"
	MigrateDown    MigrateDirection = "down"
	MigrateVersion MigrateDirection = "version"
)

// MigrateAction はmigrateサブコマンドの解析結果。
// StepsはMigrateDownでのみ使い、0は全て巻き戻すことを表す。
type MigrateAction struct {
	Direction MigrateDirection
	Steps     int
}

// ParseMigrateArgs は "migrate" に続く引数を解析する。
//
//	migrate              → up
//	migrate up           → up
//	migrate down [N]     → N件巻き戻す（省略時は1件）
//	migrate down all     → 全て巻き戻す
//	migrate version      → 現在のバージョンを表示
func ParseMigrateArgs(args []string) (MigrateAction, error) {
	if len(args) == 0 {
		return MigrateAction{Direction: MigrateUp}, nil
	}

	switch MigrateDirection(args[0]) {
	case MigrateUp:
		if len(args) > 1 {
			return MigrateAction{}, fmt.Errorf("migrate up takes no arguments")
		}
		return MigrateAction{Direction: MigrateUp}, nil
	case MigrateVersion:
		return MigrateAction{Direction: MigrateVersion}, nil
	case MigrateDown:
		if len(args) == 1 {
			return MigrateAction{Direction: MigrateDown, Steps: 1}, nil
		}
		if args[1] == "all" {
			return MigrateAction{Direction: MigrateDown, Steps: 0}, nil
		}
		n, err := strconv.Atoi(args[1])
		if err != nil || n < 1 {
			return MigrateAction{}, fmt.Errorf("invalid step count for migrate down: %q", args[1])
		}
		return MigrateAction{Direction: MigrateDown, Steps: n}, nil
	default:
		return MigrateAction{}, fmt.Errorf("unknown migrate action: %q", args[0])
	}
}
