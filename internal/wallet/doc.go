// Package wallet 实现钱包工具的核心：输入校验、统一的结果信封以及交易
// 生命周期（create → sign → send → check）的编排。
//
// 每个工具对应 Service 上的一个方法，方法只返回 Result，从不返回 error；
// 所有错误都在方法边界上被转换成失败信封。
package wallet
