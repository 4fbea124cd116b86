package service

import "errors"

// 账本错误的封闭集合
// 所有余额变更操作只会以下列五种业务错误之一失败，
// 边界层（handler）据此一次性映射为 HTTP 状态码与稳定的业务错误码
var (
	// ErrAccountNotFound 账户不存在，或不属于请求用户（出账类操作按归属收敛）
	ErrAccountNotFound = errors.New("账户不存在")

	// ErrInsufficientFunds 出账金额超过当前余额
	ErrInsufficientFunds = errors.New("余额不足")

	// ErrInvalidTransfer 转出转入为同一账户
	ErrInvalidTransfer = errors.New("不能向同一账户转账")

	// ErrValidationFailed 金额不合法（非正数、精度超过两位小数或超出取值范围）
	ErrValidationFailed = errors.New("金额不合法")

	// ErrConflict 并发冲突重试次数耗尽，调用方可稍后重试
	ErrConflict = errors.New("系统繁忙，请稍后重试")
)
