// Package commands 定义 cutover 命令行工具。
//
// 命令
//
//   - stage <n>       执行单个步骤 (1-4)
//   - run-all         一次执行全部步骤
//   - settings show   显示当前凭据 (密钥脱敏)
//   - settings save   校验并保存凭据到后端
//
// 根命令在子命令运行前加载配置、初始化日志和存储, 并为 --session 指定的
// 命名空间组装一个会话, 与 Web 控制台共用同一套 Settings Client 和 Stage Runner。
package commands
